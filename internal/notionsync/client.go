package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// queryPageSize is the largest page the Notion query endpoint returns.
const queryPageSize = 100

// Client is the NotionService backed by the Notion API.
type Client struct {
	api *notionapi.Client
}

// NewClient authenticates with an integration token that has access to the
// inbox database.
func NewClient(token string) *Client {
	return &Client{api: notionapi.NewClient(notionapi.Token(token))}
}

var _ NotionService = (*Client)(nil)

// CreatePage adds a notification row to the inbox database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePage: database %s: %w", databaseID, err)
	}
	return page, nil
}

// UpdatePage changes properties of an existing row, typically its read flag.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: properties})
	if err != nil {
		return nil, fmt.Errorf("UpdatePage: page %s: %w", pageID, err)
	}
	return page, nil
}

func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: database %s: %w", databaseID, err)
	}
	return resp, nil
}

// ArchivePage removes a row from the inbox. Notion keeps archived pages in
// its trash.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Archived: true}); err != nil {
		return fmt.Errorf("ArchivePage: page %s: %w", pageID, err)
	}
	return nil
}

// userPagesQuery selects the rows owned by userID, oldest first, resuming
// after cursor when it is set.
func userPagesQuery(userID string, cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: PropUser,
			Select:   &notionapi.SelectFilterCondition{Equals: userID},
		},
		Sorts: []notionapi.SortObject{
			{Property: PropCreated, Direction: notionapi.SortOrderASC},
		},
		StartCursor: cursor,
		PageSize:    queryPageSize,
	}
}

// queryUserPages follows the query cursor until every row owned by userID
// has been read.
func queryUserPages(ctx context.Context, notionClient NotionService, databaseID, userID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		resp, err := notionClient.QueryDatabase(ctx, databaseID, userPagesQuery(userID, cursor))
		if err != nil {
			return nil, fmt.Errorf("queryUserPages: %w", err)
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
