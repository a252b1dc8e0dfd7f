// Package images collects image attachments from a message and its
// optional reply target
package images

import (
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Origin marks which message an image reference came from.
type Origin int

const (
	OriginCurrent Origin = iota
	OriginReferenced
)

// Ref points to one image attachment.
type Ref struct {
	URL    string
	Origin Origin
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImageAttachment reports whether the attachment's filename carries
// a recognized image extension.
func IsImageAttachment(att *discordgo.MessageAttachment) bool {
	ext := strings.ToLower(filepath.Ext(att.Filename))
	return imageExtensions[ext]
}

// Collection is the result of collecting images for one message.
type Collection struct {
	Current    []Ref
	Referenced []Ref
}

// Total returns the combined image count across both sources.
func (c Collection) Total() int {
	return len(c.Current) + len(c.Referenced)
}

// HasAny reports whether any image was found in either source.
func (c Collection) HasAny() bool {
	return c.Total() > 0
}

// URLs returns every image URL, current message first, in attachment
// order.
func (c Collection) URLs() []string {
	urls := make([]string, 0, c.Total())
	for _, ref := range c.Current {
		urls = append(urls, ref.URL)
	}
	for _, ref := range c.Referenced {
		urls = append(urls, ref.URL)
	}
	return urls
}

// First returns the first available image URL, preferring the current
// message over the referenced one.
func (c Collection) First() (string, bool) {
	if len(c.Current) > 0 {
		return c.Current[0].URL, true
	}
	if len(c.Referenced) > 0 {
		return c.Referenced[0].URL, true
	}
	return "", false
}

// Collect gathers image references from the message and its resolved
// reply target. refMsg may be nil when the message is not a reply or
// the reference could not be resolved.
func Collect(msg *discordgo.Message, refMsg *discordgo.Message) Collection {
	var c Collection
	for _, att := range msg.Attachments {
		if IsImageAttachment(att) {
			c.Current = append(c.Current, Ref{URL: att.URL, Origin: OriginCurrent})
		}
	}
	if refMsg != nil {
		for _, att := range refMsg.Attachments {
			if IsImageAttachment(att) {
				c.Referenced = append(c.Referenced, Ref{URL: att.URL, Origin: OriginReferenced})
			}
		}
	}
	return c
}
