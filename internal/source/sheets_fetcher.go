package source

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"prodtrack/internal/config"
	"prodtrack/internal/dataprocessing"
	apperrors "prodtrack/internal/errors"
)

// SheetsFetcher reads a range through the Google Sheets API v4.
type SheetsFetcher struct {
	service   *sheets.Service
	sheetID   string
	readRange string
	cfg       config.SourceConfig
	logger    *slog.Logger
}

// NewSheetsFetcher authenticates with the API key when set, otherwise with
// the credentials file. Extra options are appended last.
func NewSheetsFetcher(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsFetcher, error) {
	if cfg.SheetID == "" {
		return nil, apperrors.NewConfigError("source.sheet_id is required", nil)
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	switch {
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, apperrors.NewConfigError("source.api_key or source.credentials_file is required", nil)
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create sheets client", err)
	}

	readRange := cfg.SheetRange
	if readRange == "" {
		readRange = "A:Z"
	}

	return &SheetsFetcher{
		service:   service,
		sheetID:   cfg.SheetID,
		readRange: readRange,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "sheets_fetcher")),
	}, nil
}

// Describe identifies the spreadsheet and range.
func (f *SheetsFetcher) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", f.sheetID, f.readRange)
}

// Fetch reads the configured range with formatted cell values.
func (f *SheetsFetcher) Fetch(ctx context.Context) (raw *dataprocessing.RawRecordSet, err error) {
	ctx, span := startSpan(ctx, "source.sheets.fetch", f.Describe())
	defer func() { endSpan(span, raw, err) }()

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	resp, err := f.service.Spreadsheets.Values.Get(f.sheetID, f.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewConnectionError("sheets API request failed", err).
			WithContext("sheet_id", f.sheetID)
	}

	if len(resp.Values) == 0 {
		return nil, apperrors.NewMalformedDataError("sheet range is empty", nil).
			WithContext("range", f.readRange)
	}

	raw, err = dataprocessing.FromValues(resp.Values)
	if err != nil {
		return nil, err
	}

	f.logger.DebugContext(ctx, "sheet fetched",
		slog.String("range", resp.Range),
		slog.Int("rows", raw.Len()))
	return raw, nil
}
