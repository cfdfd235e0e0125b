package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/shopspring/decimal"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoCatalog.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoCatalog reads the catalog from DynamoDB tables keyed by numeric id.
// Scans come back in hash order, so results are re-sorted by id.
type DynamoCatalog struct {
	client          DynamoAPI
	productsTable   string
	categoriesTable string
}

// dynamoProduct represents the DynamoDB item structure
type dynamoProduct struct {
	ID              int64    `dynamodbav:"id"`
	Name            string   `dynamodbav:"name"`
	Description     string   `dynamodbav:"description"`
	Category        string   `dynamodbav:"category"`
	Subcategory     string   `dynamodbav:"subcategory"`
	Gender          string   `dynamodbav:"gender"`
	Price           string   `dynamodbav:"price"`
	DiscountPercent int      `dynamodbav:"discount_percent"`
	Images          []string `dynamodbav:"images"`
	Sizes           []string `dynamodbav:"sizes"`
	Colors          []string `dynamodbav:"colors"`
	InStock         bool     `dynamodbav:"in_stock"`
	Featured        bool     `dynamodbav:"featured"`
	NewArrival      bool     `dynamodbav:"new_arrival"`
	Tags            []string `dynamodbav:"tags"`
}

type dynamoCategory struct {
	ID            int64    `dynamodbav:"id"`
	Name          string   `dynamodbav:"name"`
	Slug          string   `dynamodbav:"slug"`
	Image         string   `dynamodbav:"image"`
	ProductCount  int      `dynamodbav:"product_count"`
	Description   string   `dynamodbav:"description"`
	Subcategories []string `dynamodbav:"subcategories"`
	Tags          []string `dynamodbav:"tags"`
}

func NewDynamoCatalog(client DynamoAPI, productsTable, categoriesTable string) *DynamoCatalog {
	return &DynamoCatalog{
		client:          client,
		productsTable:   productsTable,
		categoriesTable: categoriesTable,
	}
}

func (dc *DynamoCatalog) FetchAll(ctx context.Context) ([]product.Product, error) {
	var items []dynamoProduct
	if err := dc.scan(ctx, dc.productsTable, &items); err != nil {
		return nil, err
	}

	products := make([]product.Product, 0, len(items))
	for _, item := range items {
		p, err := item.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b product.Product) int { return cmp.Compare(a.ID, b.ID) })
	return products, nil
}

func (dc *DynamoCatalog) FetchByID(ctx context.Context, id int64) (product.Product, error) {
	result, err := dc.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(dc.productsTable),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
		},
	})
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	if result.Item == nil {
		return product.Product{}, product.ErrProductNotFound
	}

	var item dynamoProduct
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return product.Product{}, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return item.toProduct()
}

// FetchCategories returns no categories when no categories table is configured.
func (dc *DynamoCatalog) FetchCategories(ctx context.Context) ([]product.Category, error) {
	if dc.categoriesTable == "" {
		return []product.Category{}, nil
	}

	var items []dynamoCategory
	if err := dc.scan(ctx, dc.categoriesTable, &items); err != nil {
		return nil, err
	}

	categories := make([]product.Category, 0, len(items))
	for _, c := range items {
		categories = append(categories, product.Category{
			ID:            c.ID,
			Name:          c.Name,
			Slug:          c.Slug,
			Image:         c.Image,
			ProductCount:  c.ProductCount,
			Description:   c.Description,
			Subcategories: c.Subcategories,
			Tags:          c.Tags,
		})
	}
	slices.SortFunc(categories, func(a, b product.Category) int { return cmp.Compare(a.ID, b.ID) })
	return categories, nil
}

// scan reads every page of table into out, a pointer to a slice.
func (dc *DynamoCatalog) scan(ctx context.Context, table string, out any) error {
	paginator := dynamodb.NewScanPaginator(dc.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})

	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		items = append(items, page.Items...)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", table, err)
	}
	return nil
}

func (d dynamoProduct) toProduct() (product.Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return product.Product{}, fmt.Errorf("product %d: invalid price %q: %w", d.ID, d.Price, err)
	}
	return product.Product{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		Category:        d.Category,
		Subcategory:     d.Subcategory,
		Gender:          product.Gender(d.Gender),
		Price:           price,
		DiscountPercent: d.DiscountPercent,
		Images:          d.Images,
		Sizes:           d.Sizes,
		Colors:          d.Colors,
		InStock:         d.InStock,
		Featured:        d.Featured,
		NewArrival:      d.NewArrival,
		Tags:            d.Tags,
	}, nil
}
