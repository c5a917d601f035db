package product

const IndexName = "products"

const IndexMapping = `{
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "sku":         { "type": "keyword" },
      "name":        { "type": "text", "fields": { "raw": { "type": "keyword" } } },
      "description": { "type": "text" },
      "category_id": { "type": "keyword" },
      "price":       { "type": "double" },
      "is_active":   { "type": "boolean" },
      "created_at":  { "type": "date" }
    }
  }
}`
