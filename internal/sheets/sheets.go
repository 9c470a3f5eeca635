// Package sheets appends finished annotation records to a shared Google
// Sheet and recovers an annotator's progress from it.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/facelab/annotator/internal/annotation"
	"github.com/facelab/annotator/internal/config"
)

// Writer is the sink for finished annotation records. Handlers depend on
// this interface so tests can substitute a fake.
type Writer interface {
	// Append writes one record as one new row. Exactly one network
	// round trip; no batching, no retry.
	Append(ctx context.Context, rec annotation.Record) error
	// Completed returns the pair indexes this annotator has already
	// submitted, so a returning annotator resumes where they left off.
	Completed(ctx context.Context, annotatorID string) (map[int]bool, error)
}

// Header is the first row of the sheet, written once when the sheet is
// empty.
var Header = []string{
	"timestamp", "annotator_id", "pair_index", "image_a", "image_b",
	"ground_truth", "celeb_id", "human_decision", "initial_explanation",
	"is_correct", "followup_explanation",
}

const sheetRange = "Sheet1"

// Client writes to a Google Sheet through the Sheets API. The service is
// authenticated lazily, exactly once per process; the handle is reused
// for every subsequent call and torn down implicitly at process exit.
type Client struct {
	spreadsheetID string
	opts          []option.ClientOption

	once    sync.Once
	svc     *sheetsapi.Service
	initErr error
}

// NewClient builds a client for the configured spreadsheet. Extra
// options override the default credentials wiring (used by tests to
// point at a local server).
func NewClient(cfg config.SheetsConfig, opts ...option.ClientOption) *Client {
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheetsapi.SpreadsheetsScope),
		}
	}
	return &Client{
		spreadsheetID: cfg.SpreadsheetID,
		opts:          opts,
	}
}

// service authenticates on first use and bootstraps the header row when
// the sheet is empty, mirroring a fresh untouched spreadsheet.
func (c *Client) service(ctx context.Context) (*sheetsapi.Service, error) {
	c.once.Do(func() {
		svc, err := sheetsapi.NewService(ctx, c.opts...)
		if err != nil {
			c.initErr = fmt.Errorf("connecting to Google Sheets: %w", err)
			return
		}
		c.svc = svc

		resp, err := svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange).Context(ctx).Do()
		if err != nil {
			c.initErr = fmt.Errorf("reading sheet: %w", err)
			c.svc = nil
			return
		}
		if len(resp.Values) == 0 {
			header := make([]interface{}, len(Header))
			for i, h := range Header {
				header[i] = h
			}
			if err := c.appendRow(ctx, svc, header); err != nil {
				c.initErr = fmt.Errorf("writing header row: %w", err)
				c.svc = nil
			}
		}
	})
	return c.svc, c.initErr
}

func (c *Client) appendRow(ctx context.Context, svc *sheetsapi.Service, row []interface{}) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	_, err := svc.Spreadsheets.Values.
		Append(c.spreadsheetID, sheetRange+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Append writes one annotation record as a new row.
func (c *Client) Append(ctx context.Context, rec annotation.Record) error {
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	if err := c.appendRow(ctx, svc, Row(rec)); err != nil {
		return fmt.Errorf("appending annotation row: %w", err)
	}
	return nil
}

// Completed reads the sheet and collects the pair indexes already
// annotated by annotatorID. Rows with missing or malformed fields are
// skipped.
func (c *Client) Completed(ctx context.Context, annotatorID string) (map[int]bool, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	return parseCompleted(resp.Values, annotatorID), nil
}

// Row maps a record to the sheet's column order.
func Row(rec annotation.Record) []interface{} {
	return []interface{}{
		rec.Timestamp.Format(time.RFC3339),
		rec.AnnotatorID,
		strconv.Itoa(rec.PairIndex),
		rec.ImageA,
		rec.ImageB,
		rec.GroundTruth,
		rec.CelebID,
		rec.HumanDecision,
		rec.InitialExplanation,
		strconv.FormatBool(rec.IsCorrect),
		rec.FollowupExplanation,
	}
}

// parseCompleted extracts completed pair indexes for one annotator from
// raw sheet values. The first row is assumed to be the header.
func parseCompleted(values [][]interface{}, annotatorID string) map[int]bool {
	completed := make(map[int]bool)
	for i, row := range values {
		if i == 0 || len(row) < 3 {
			continue
		}
		who, ok := row[1].(string)
		if !ok || who != annotatorID {
			continue
		}
		raw, ok := row[2].(string)
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		completed[idx] = true
	}
	return completed
}
