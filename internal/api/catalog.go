package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"shifa/internal/models"
)

func pageQuery(page int) url.Values {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// Departments lists clinic departments, paginated.
func (c *Client) Departments(ctx context.Context, page int) ([]models.Department, *Meta, error) {
	var out []models.Department
	meta, err := c.get(ctx, "/site/departments", pageQuery(page), fmt.Sprintf("departments:%d", page), &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

// Services lists purchasable services, paginated.
func (c *Client) Services(ctx context.Context, page int) ([]models.Service, *Meta, error) {
	var out []models.Service
	meta, err := c.get(ctx, "/site/services", pageQuery(page), fmt.Sprintf("services:%d", page), &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

// Offers lists current promotions, paginated.
func (c *Client) Offers(ctx context.Context, page int) ([]models.Offer, *Meta, error) {
	var out []models.Offer
	meta, err := c.get(ctx, "/site/offers", pageQuery(page), fmt.Sprintf("offers:%d", page), &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}

// BlogPosts lists published articles, paginated.
func (c *Client) BlogPosts(ctx context.Context, page int) ([]models.BlogPost, *Meta, error) {
	var out []models.BlogPost
	meta, err := c.get(ctx, "/site/blog", pageQuery(page), fmt.Sprintf("blog:%d", page), &out)
	if err != nil {
		return nil, nil, err
	}
	return out, meta, nil
}
