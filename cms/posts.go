package cms

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPerPage = 6
	MaxPerPage     = 100

	dateLayout         = "January 2, 2006"
	contentPlaceholder = "<p>Content unavailable. This post may be empty or under construction.</p>"
	featuredTag        = "featured"
)

// Term is a category or tag reference.
type Term struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FeaturedImage is a post's hero image.
type FeaturedImage struct {
	SourceURL string `json:"sourceUrl"`
	AltText   string `json:"altText"`
}

// Post is a published article.
type Post struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Excerpt       string         `json:"excerpt"`
	Content       string         `json:"content"`
	Slug          string         `json:"slug"`
	Date          string         `json:"date"`
	Categories    []Term         `json:"categories"`
	Tags          []Term         `json:"tags"`
	FeaturedImage *FeaturedImage `json:"featuredImage"`
}

// PageInfo is the cursor state after a page of posts.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// PostPage is one page of posts, newest first.
type PostPage struct {
	Posts    []Post   `json:"posts"`
	PageInfo PageInfo `json:"pageInfo"`
}

// PostQuery filters the post listing.
type PostQuery struct {
	Category string
	Featured bool
	PerPage  int
	After    string
}

type termNodes struct {
	Nodes []Term `json:"nodes"`
}

type postNode struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Excerpt       string    `json:"excerpt"`
	Content       string    `json:"content"`
	Slug          string    `json:"slug"`
	Date          string    `json:"date"`
	Categories    termNodes `json:"categories"`
	Tags          termNodes `json:"tags"`
	FeaturedImage *struct {
		Node FeaturedImage `json:"node"`
	} `json:"featuredImage"`
}

func (n postNode) toPost() Post {
	p := Post{
		ID:         n.ID,
		Title:      n.Title,
		Excerpt:    n.Excerpt,
		Content:    n.Content,
		Slug:       n.Slug,
		Date:       FormatDate(n.Date),
		Categories: n.Categories.Nodes,
		Tags:       n.Tags.Nodes,
	}
	if p.Categories == nil {
		p.Categories = []Term{}
	}
	if p.Tags == nil {
		p.Tags = []Term{}
	}
	if n.FeaturedImage != nil {
		img := n.FeaturedImage.Node
		p.FeaturedImage = &img
	}
	return p
}

const postFields = `
  id
  title
  excerpt
  content
  slug
  date
  categories { nodes { id name slug } }
  tags { nodes { id name slug } }
  featuredImage { node { sourceUrl altText } }`

const postsQuery = `
query GetPosts($first: Int, $after: String, $categorySlug: String, $tag: String) {
  posts(first: $first, after: $after, where: {
    categoryName: $categorySlug
    tag: $tag
    status: PUBLISH
    orderby: {field: DATE, order: DESC}
  }) {
    pageInfo { hasNextPage endCursor }
    nodes {` + postFields + `
    }
  }
}`

// Posts lists published posts.
func (c *Client) Posts(ctx context.Context, q PostQuery) (PostPage, error) {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	vars := map[string]any{"first": perPage, "after": nil}
	if q.After != "" {
		vars["after"] = q.After
	}
	if q.Category != "" {
		vars["categorySlug"] = q.Category
	}
	if q.Featured {
		vars["tag"] = featuredTag
	}

	var data struct {
		Posts *struct {
			PageInfo PageInfo   `json:"pageInfo"`
			Nodes    []postNode `json:"nodes"`
		} `json:"posts"`
	}
	if err := c.query(ctx, postsQuery, vars, &data); err != nil {
		return PostPage{}, err
	}

	page := PostPage{Posts: []Post{}}
	if data.Posts == nil {
		return page, nil
	}
	page.PageInfo = data.Posts.PageInfo
	for _, n := range data.Posts.Nodes {
		page.Posts = append(page.Posts, n.toPost())
	}
	return page, nil
}

const postQuery = `
query GetPost($slug: ID!) {
  post(id: $slug, idType: SLUG) {` + postFields + `
  }
}`

// Post fetches one post by slug. Plain-text content is wrapped in a
// paragraph; empty content is replaced by a placeholder.
func (c *Client) Post(ctx context.Context, slug string) (Post, error) {
	var data struct {
		Post *postNode `json:"post"`
	}
	if err := c.query(ctx, postQuery, map[string]any{"slug": slug}, &data); err != nil {
		return Post{}, err
	}
	if data.Post == nil {
		return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
	}

	p := data.Post.toPost()
	p.Content = ProcessContent(p.Content)
	return p, nil
}

// ProcessContent normalizes post HTML for display.
func ProcessContent(content string) string {
	if content == "" {
		return contentPlaceholder
	}
	if !strings.HasPrefix(strings.TrimSpace(content), "<") {
		return "<p>" + content + "</p>"
	}
	return content
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// FormatDate renders an upstream timestamp as "January 2, 2006". Unparseable
// input is returned unchanged.
func FormatDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return raw
}

// Category is a post category.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count *int   `json:"count"`
}

// CategoryQuery controls the category listing. The zero value lists the
// twenty largest non-empty categories.
type CategoryQuery struct {
	Limit        int
	IncludeEmpty bool
	OrderByName  bool
	Ascending    bool
}

const categoriesQuery = `
query GetCategories($first: Int, $hideEmpty: Boolean) {
  categories(first: $first, where: {hideEmpty: $hideEmpty, orderby: %s, order: %s}) {
    nodes { id name slug count }
  }
}`

// Categories lists post categories.
func (c *Client) Categories(ctx context.Context, q CategoryQuery) ([]Category, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	orderBy, order := "COUNT", "DESC"
	if q.OrderByName {
		orderBy = "NAME"
	}
	if q.Ascending {
		order = "ASC"
	}

	var data struct {
		Categories *struct {
			Nodes []Category `json:"nodes"`
		} `json:"categories"`
	}
	query := fmt.Sprintf(categoriesQuery, orderBy, order)
	if err := c.query(ctx, query, map[string]any{"first": limit, "hideEmpty": !q.IncludeEmpty}, &data); err != nil {
		return nil, err
	}
	if data.Categories == nil || data.Categories.Nodes == nil {
		return []Category{}, nil
	}
	return data.Categories.Nodes, nil
}
