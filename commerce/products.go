package commerce

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 250
	MaxPageSize     = 250
)

// Product is the listing shape of a product.
type Product struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Handle            string          `json:"handle"`
	ProductType       string          `json:"productType"`
	Tags              []string        `json:"tags"`
	Price             string          `json:"price"`
	Currency          string          `json:"currency"`
	Image             *string         `json:"image"`
	ImageAlt          string          `json:"imageAlt"`
	Available         bool            `json:"available"`
	VariantID         string          `json:"variantId,omitempty"`
	CategoryMetafield *MetafieldValue `json:"categoryMetafield"`
	Categories        []string        `json:"categories"`
}

// PageInfo is the cursor state after a page.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// ProductQuery selects a page of products.
type ProductQuery struct {
	First int
	After string
}

// ProductPage is one page of products.
type ProductPage struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
	Count    int       `json:"count"`
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type imageNode struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type productNode struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Handle      string   `json:"handle"`
	ProductType string   `json:"productType"`
	Tags        []string `json:"tags"`
	PriceRange  struct {
		MinVariantPrice money `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	CategoryMetafield *MetafieldValue `json:"categoryMetafield"`
	Variants          struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type variantNode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"availableForSale"`
	Price            *money `json:"price"`
}

const productsQuery = `
query getProducts($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        id
        title
        description
        handle
        productType
        tags
        priceRange { minVariantPrice { amount currencyCode } }
        images(first: 1) { edges { node { url altText } } }
        %s
        variants(first: 1) { edges { node { id availableForSale } } }
      }
    }
  }
}`

// Products fetches one page of products. First is clamped to [1, MaxPageSize].
func (c *Client) Products(ctx context.Context, q ProductQuery) (ProductPage, error) {
	first := q.First
	if first <= 0 {
		first = DefaultPageSize
	}
	if first > MaxPageSize {
		first = MaxPageSize
	}

	vars := map[string]any{"first": first}
	if q.After != "" {
		vars["after"] = q.After
	}

	var data struct {
		Products struct {
			PageInfo PageInfo `json:"pageInfo"`
			Edges    []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.query(ctx, fmt.Sprintf(productsQuery, c.categorySelection()), vars, &data); err != nil {
		return ProductPage{}, err
	}

	products := make([]Product, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		products = append(products, reshapeProduct(edge.Node))
	}
	c.logger.Debug("fetched products", zap.Int("count", len(products)))

	return ProductPage{Products: products, PageInfo: data.Products.PageInfo, Count: len(products)}, nil
}

func (c *Client) categorySelection() string {
	if c.category == nil {
		return ""
	}
	return fmt.Sprintf("categoryMetafield: metafield(namespace: %s, key: %s) { value type }",
		strconv.Quote(c.category.Namespace), strconv.Quote(c.category.Key))
}

func reshapeProduct(n productNode) Product {
	p := Product{
		ID:                n.ID,
		Title:             n.Title,
		Description:       n.Description,
		Handle:            n.Handle,
		ProductType:       n.ProductType,
		Tags:              n.Tags,
		Price:             n.PriceRange.MinVariantPrice.Amount,
		Currency:          n.PriceRange.MinVariantPrice.CurrencyCode,
		ImageAlt:          n.Title,
		CategoryMetafield: n.CategoryMetafield,
		Categories:        []string{},
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if len(n.Images.Edges) > 0 {
		img := n.Images.Edges[0].Node
		if img.URL != "" {
			p.Image = &img.URL
		}
		if img.AltText != "" {
			p.ImageAlt = img.AltText
		}
	}
	if len(n.Variants.Edges) > 0 {
		v := n.Variants.Edges[0].Node
		p.VariantID = v.ID
		p.Available = v.AvailableForSale
	}
	if n.CategoryMetafield != nil {
		p.Categories = MetafieldValues(n.CategoryMetafield.Value, n.CategoryMetafield.Type)
	}
	return p
}

// Image is a product image.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// Variant is a purchasable variant of a product.
type Variant struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Available bool   `json:"available"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
}

// ProductDetail is the single-product shape.
type ProductDetail struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Handle      string    `json:"handle"`
	Price       string    `json:"price"`
	Currency    string    `json:"currency"`
	Images      []Image   `json:"images"`
	Variants    []Variant `json:"variants"`
}

const productByHandleQuery = `
query getProduct($handle: String!) {
  product(handle: $handle) {
    id
    title
    description
    handle
    priceRange { minVariantPrice { amount currencyCode } }
    images(first: 5) { edges { node { url altText } } }
    variants(first: 10) { edges { node { id title availableForSale price { amount currencyCode } } } }
  }
}`

// ProductByHandle fetches one product with images and variants.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (ProductDetail, error) {
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.query(ctx, productByHandleQuery, map[string]any{"handle": handle}, &data); err != nil {
		return ProductDetail{}, err
	}
	if data.Product == nil {
		return ProductDetail{}, fmt.Errorf("%w: %s", ErrProductNotFound, handle)
	}

	n := data.Product
	d := ProductDetail{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Handle:      n.Handle,
		Price:       n.PriceRange.MinVariantPrice.Amount,
		Currency:    n.PriceRange.MinVariantPrice.CurrencyCode,
		Images:      make([]Image, 0, len(n.Images.Edges)),
		Variants:    make([]Variant, 0, len(n.Variants.Edges)),
	}
	for _, e := range n.Images.Edges {
		d.Images = append(d.Images, Image(e.Node))
	}
	for _, e := range n.Variants.Edges {
		v := Variant{ID: e.Node.ID, Title: e.Node.Title, Available: e.Node.AvailableForSale}
		if e.Node.Price != nil {
			v.Price, v.Currency = e.Node.Price.Amount, e.Node.Price.CurrencyCode
		}
		d.Variants = append(d.Variants, v)
	}
	return d, nil
}
