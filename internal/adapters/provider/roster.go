package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

// FetchRosterPage fetches one page of the live room's guard list.
func (c *Client) FetchRosterPage(ctx context.Context, page int) (*model.RosterPage, error) {
	q := url.Values{
		"roomid": {strconv.FormatInt(c.roomID, 10)},
		"ruid":   {strconv.FormatInt(c.rulerUID, 10)},
		"page":   {strconv.Itoa(page)},
	}
	var doc map[string]any
	if err := c.get(ctx, c.client, endpoint(c.live, "xlive/app-room/v2/guardTab/topList", q), &doc); err != nil {
		return nil, err
	}
	if code, ok := doc["code"].(float64); ok && code != 0 {
		return nil, apperrors.Unavailable(nil, "roster page %d rejected: code %v", page, code)
	}

	out := &model.RosterPage{Number: page}
	var err error
	if out.TotalPages, err = c.searchInt(doc, c.paths.TotalPages); err != nil {
		return nil, apperrors.Unavailable(err, "roster page %d: total pages", page)
	}
	if out.TotalCount, err = c.searchInt(doc, c.paths.TotalCount); err != nil {
		return nil, apperrors.Unavailable(err, "roster page %d: total count", page)
	}
	// Only page 1 carries the top entries.
	if page == 1 {
		if out.Top, err = c.searchEntries(doc, c.paths.Top); err != nil {
			return nil, apperrors.Unavailable(err, "roster page %d: top entries", page)
		}
	}
	if out.Entries, err = c.searchEntries(doc, c.paths.List); err != nil {
		return nil, apperrors.Unavailable(err, "roster page %d: entries", page)
	}
	return out, nil
}

func (c *Client) searchInt(doc any, expr string) (int, error) {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return toInt(v)
}

func (c *Client) searchEntries(doc any, expr string) ([]model.RosterEntry, error) {
	v, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is %T, want array", expr, v)
	}
	entries := make([]model.RosterEntry, 0, len(items))
	for idx, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q[%d] is %T, want object", expr, idx, item)
		}
		uid, err := toInt64(obj["uid"])
		if err != nil {
			return nil, fmt.Errorf("%q[%d].uid: %w", expr, idx, err)
		}
		tier, err := toInt(obj["guard_level"])
		if err != nil {
			return nil, fmt.Errorf("%q[%d].guard_level: %w", expr, idx, err)
		}
		name, _ := obj["username"].(string)
		entries = append(entries, model.RosterEntry{AccountID: uid, DisplayName: name, Tier: tier})
	}
	return entries, nil
}

func toInt64(v any) (int64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("got %T, want number", v)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("got %v, want integer", f)
	}
	return int64(f), nil
}

func toInt(v any) (int, error) {
	n, err := toInt64(v)
	return int(n), err
}
