package render

import (
	"container/list"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultReplyLimit is how many rendered replies are kept
const DefaultReplyLimit = 256

// replyKey identifies one rendering of a reply. Options is comparable, so
// the width the chat screen wraps at is part of the key.
type replyKey struct {
	opts Options
	text string
}

type cachedReply struct {
	key replyKey
	out string
}

// replyCache holds the rendered form of finished bot replies, evicting the
// least recently shown once limit is reached. Replies are never edited after
// they reach the transcript, so an entry stays valid until it is evicted.
//
// glamour.TermRenderer is not safe for concurrent Render calls; every render
// happens under mu with one renderer per option set.
type replyCache struct {
	mu        sync.Mutex
	limit     int
	renderers map[Options]*glamour.TermRenderer
	entries   map[replyKey]*list.Element
	recent    *list.List
	renders   int
}

func newReplyCache(limit int) *replyCache {
	return &replyCache{
		limit:     limit,
		renderers: make(map[Options]*glamour.TermRenderer),
		entries:   make(map[replyKey]*list.Element),
		recent:    list.New(),
	}
}

var replies = newReplyCache(DefaultReplyLimit)

// reply returns the rendered reply, rendering it on first use. Failed
// renders are not cached.
func (c *replyCache) reply(text string, opts Options) (string, error) {
	key := replyKey{opts: opts, text: text}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.recent.MoveToFront(el)
		return el.Value.(*cachedReply).out, nil
	}

	out, err := c.renderLocked(text, opts)
	if err != nil {
		return "", err
	}

	c.entries[key] = c.recent.PushFront(&cachedReply{key: key, out: out})
	for c.recent.Len() > c.limit {
		oldest := c.recent.Back()
		c.recent.Remove(oldest)
		delete(c.entries, oldest.Value.(*cachedReply).key)
	}
	return out, nil
}

// render renders content without caching the result
func (c *replyCache) render(content string, opts Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked(content, opts)
}

func (c *replyCache) renderLocked(content string, opts Options) (string, error) {
	renderer, ok := c.renderers[opts]
	if !ok {
		var err error
		renderer, err = createRenderer(opts)
		if err != nil {
			return "", err
		}
		c.renderers[opts] = renderer
	}
	c.renders++
	return renderer.Render(content)
}

func (c *replyCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = make(map[Options]*glamour.TermRenderer)
	c.entries = make(map[replyKey]*list.Element)
	c.recent.Init()
}

func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops every cached reply and renderer
func ClearCache() {
	replies.clear()
}

// CachedReplies returns the number of replies held in the cache
func CachedReplies() int {
	replies.mu.Lock()
	defer replies.mu.Unlock()
	return replies.recent.Len()
}

// Renders returns how many markdown renders have run since start
func Renders() int {
	replies.mu.Lock()
	defer replies.mu.Unlock()
	return replies.renders
}
