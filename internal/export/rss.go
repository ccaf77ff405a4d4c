// Package export renders the public read surfaces of the feed, currently
// an RSS 2.0 document of the newest posts.
package export

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/dkrasnov/feed-service/internal/models"
)

// RenderRSS builds an RSS 2.0 document for the given posts, newest first.
// baseURL is the externally visible origin used for item and image links.
func RenderRSS(baseURL string, posts []models.Post) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText("Feed")
	channel.CreateElement("link").SetText(baseURL)
	channel.CreateElement("description").SetText("Latest posts")
	channel.CreateElement("lastBuildDate").SetText(time.Now().UTC().Format(time.RFC1123Z))

	for _, post := range posts {
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(post.Title)
		item.CreateElement("description").SetText(post.Content)

		link := fmt.Sprintf("%s/feed/post/%d", baseURL, post.ID)
		item.CreateElement("link").SetText(link)
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(link)

		if post.Creator != nil {
			item.CreateElement("author").SetText(post.Creator.Name)
		}
		if post.ImageURL != "" {
			enclosure := item.CreateElement("enclosure")
			enclosure.CreateAttr("url", fmt.Sprintf("%s/%s", baseURL, post.ImageURL))
			enclosure.CreateAttr("type", "image/jpeg")
			enclosure.CreateAttr("length", "0")
		}
		item.CreateElement("pubDate").SetText(post.CreatedAt.UTC().Format(time.RFC1123Z))
	}

	doc.Indent(2)
	payload, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render rss: %w", err)
	}
	return payload, nil
}
