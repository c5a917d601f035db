// Package cachekey is the single place cache key shapes are defined. The read
// path builds keys here and the invalidation coordinator derives its eviction
// set from the same builders, so the two cannot drift apart.
package cachekey

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Kind int

const (
	KindProduct Kind = iota
	KindFeatured
	KindRelated
	KindSearch
	KindProductList
	KindCategories
	KindOrderClaim
)

func (k Kind) String() string {
	switch k {
	case KindProduct:
		return "product"
	case KindFeatured:
		return "featured"
	case KindRelated:
		return "related"
	case KindSearch:
		return "search"
	case KindProductList:
		return "products_list"
	case KindCategories:
		return "categories"
	case KindOrderClaim:
		return "order_claim"
	default:
		return "unknown"
	}
}

const (
	featuredProducts  = "featured:products"
	categoriesList    = "categories:list"
	productListPrefix = "products:list:"
	searchPrefix      = "search:products:"
)

// Key is a typed cache key. Build keys with the constructors below.
type Key struct {
	Kind  Kind
	value string
}

func (k Key) String() string { return k.value }

func Product(id string) Key {
	return Key{Kind: KindProduct, value: "product:" + id}
}

func Featured() Key {
	return Key{Kind: KindFeatured, value: featuredProducts}
}

func Related(id string, limit int) Key {
	return Key{Kind: KindRelated, value: fmt.Sprintf("related:%s:%d", id, limit)}
}

// Search keys on the normalized query text plus paging.
func Search(query string, page, pageSize int) Key {
	q := strings.ToLower(strings.TrimSpace(query))
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d", q, page, pageSize)))
	return Key{Kind: KindSearch, value: fmt.Sprintf("%s%x", searchPrefix, sum)}
}

// ProductList keys on the JSON encoding of the filter struct.
func ProductList(filters interface{}) (Key, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return Key{}, err
	}
	return Key{Kind: KindProductList, value: fmt.Sprintf("%s%x", productListPrefix, md5.Sum(data))}, nil
}

func Categories() Key {
	return Key{Kind: KindCategories, value: categoriesList}
}

// OrderClaim marks an order event as processed by the fulfilment listener.
func OrderClaim(orderID, eventType string) Key {
	return Key{Kind: KindOrderClaim, value: fmt.Sprintf("inventory:order:%s:%s", orderID, eventType)}
}

// RelatedPattern matches every related listing of a product, whatever its limit.
func RelatedPattern(id string) string {
	return "related:" + id + ":*"
}

func ProductListPattern() string { return productListPrefix + "*" }

func SearchPattern() string { return searchPrefix + "*" }

// Shared lists the exact keys and the patterns that every product mutation evicts.
func Shared() (keys []string, patterns []string) {
	return []string{featuredProducts, categoriesList}, []string{ProductListPattern(), SearchPattern()}
}

// TTLPolicy bounds staleness per key class when explicit invalidation fails.
type TTLPolicy struct {
	Product    time.Duration
	List       time.Duration
	Featured   time.Duration
	Related    time.Duration
	Search     time.Duration
	Categories time.Duration
	OrderClaim time.Duration
}

func (p TTLPolicy) For(k Kind) time.Duration {
	switch k {
	case KindProduct:
		return p.Product
	case KindFeatured:
		return p.Featured
	case KindRelated:
		return p.Related
	case KindSearch:
		return p.Search
	case KindProductList:
		return p.List
	case KindCategories:
		return p.Categories
	case KindOrderClaim:
		return p.OrderClaim
	default:
		return p.List
	}
}
