package moxfield

import (
	"fmt"
	"strings"
	"time"

	"cardpool/internal/utils"
	"cardpool/pkg/inventory"
)

func (c *Client) collectionPageURL(id string, page int) string {
	return fmt.Sprintf("%s/v1/collections/search/%s?sortType=cardName&sortDirection=ascending&pageNumber=%d&pageSize=%d",
		c.Base, id, page, collectionPageSize)
}

// Collection reads a paginated collection listing, page 1 first. The first
// page's totalPages decides how far to go; a politeness delay separates page
// fetches (never after the last one).
func (c *Client) Collection(id string) ([]inventory.Entry, error) {
	var entries []inventory.Entry

	page := 1
	totalPages := 1
	for page <= totalPages {
		res, err := c.gw.GetJSON(c.collectionPageURL(id, page))
		if err != nil {
			if page == 1 {
				// Without the first page we don't even know the page count.
				return nil, err
			}
			// A single broken page contributes nothing; the rest of the
			// collection is still worth having.
			utils.Log.Warn("Skipping collection page ", page, " of ", id, ": ", err)
		} else {
			if page == 1 {
				if tp := int(res.Get("totalPages").Int()); tp > 0 {
					totalPages = tp
				}
			}

			data := res.Get("data")
			if data.IsArray() {
				for _, item := range data.Array() {
					name := strings.TrimSpace(pick(item, "name").String())
					if name == "" {
						continue
					}
					entries = append(entries, entryFrom(name, item))
				}
			}
		}

		page++
		if page <= totalPages {
			time.Sleep(c.PageDelay)
		}
	}

	return entries, nil
}
