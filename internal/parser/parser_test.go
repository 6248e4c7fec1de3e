package parser_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
)

type stubProvider struct {
	fields *domain.FieldSet
	text   string
	err    error
	calls  atomic.Int32
}

func (s *stubProvider) ExtractFields(context.Context, string) (*domain.FieldSet, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.fields, nil
}

func (s *stubProvider) Complete(context.Context, string, string) (string, error) {
	s.calls.Add(1)
	return s.text, s.err
}

func TestFallbackExtractor_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{fields: &domain.FieldSet{CustomerName: "A"}}
	secondary := &stubProvider{fields: &domain.FieldSet{CustomerName: "B"}}
	f := parser.NewFallbackExtractor([]parser.Provider{primary, secondary}, []string{"p", "s"})

	fs, err := f.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "A", fs.CustomerName)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestFallbackExtractor_FallsThroughOnError(t *testing.T) {
	primary := &stubProvider{err: domain.NewExtractionError("p", "boom", nil)}
	secondary := &stubProvider{fields: &domain.FieldSet{CustomerName: "B"}}
	f := parser.NewFallbackExtractor([]parser.Provider{primary, secondary}, []string{"p", "s"})

	fs, err := f.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "B", fs.CustomerName)
}

func TestFallbackExtractor_RateLimitOpensCircuit(t *testing.T) {
	primary := &stubProvider{err: parser.NewRateLimitError("p", errors.New("429"), 60)}
	secondary := &stubProvider{fields: &domain.FieldSet{CustomerName: "B"}}
	f := parser.NewFallbackExtractor([]parser.Provider{primary, secondary}, []string{"p", "s"})

	_, err := f.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	_, err = f.ExtractFields(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, int32(1), primary.calls.Load(), "primary skipped while circuit is open")
	assert.Equal(t, int32(2), secondary.calls.Load())
}

func TestFallbackExtractor_AllRateLimited(t *testing.T) {
	p := &stubProvider{err: parser.NewRateLimitError("p", errors.New("429"), 30)}
	s := &stubProvider{err: parser.NewRateLimitError("s", errors.New("429"), 10)}
	f := parser.NewFallbackExtractor([]parser.Provider{p, s}, []string{"p", "s"})

	_, err := f.ExtractFields(context.Background(), "text")
	rl, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, "all", rl.Provider)
	assert.LessOrEqual(t, rl.RetryAfter, 10*time.Second)

	var exErr *domain.ExtractionError
	assert.True(t, errors.As(err, &exErr))
}

func TestFallbackExtractor_AllFailed(t *testing.T) {
	p := &stubProvider{err: errors.New("bad json")}
	f := parser.NewFallbackExtractor([]parser.Provider{p}, []string{"p"})

	_, err := f.ExtractFields(context.Background(), "text")
	var exErr *domain.ExtractionError
	require.True(t, errors.As(err, &exErr))
	_, isRL := parser.AsRateLimit(err)
	assert.False(t, isRL)
}

func TestFallbackExtractor_Complete(t *testing.T) {
	p := &stubProvider{err: errors.New("down")}
	s := &stubProvider{text: "advice"}
	f := parser.NewFallbackExtractor([]parser.Provider{p, s}, []string{"p", "s"})

	out, err := f.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "advice", out)
}

func TestMergeFields_LocalWins(t *testing.T) {
	local := domain.FieldSet{
		CustomerName:       "Local Name",
		SystemCapacityKW:   "",
		PanelSerialNumbers: nil,
		SignatureFound:     false,
	}
	alt := domain.FieldSet{
		CustomerName:       "Model Name",
		SystemCapacityKW:   "6.0",
		PanelSerialNumbers: []string{"P-1"},
		InstallDate:        "01/01/2024",
		SignatureFound:     true,
	}

	merged := parser.MergeFields(local, alt)

	assert.Equal(t, "Local Name", merged.CustomerName)
	assert.Equal(t, "6.0", merged.SystemCapacityKW)
	assert.Equal(t, []string{"P-1"}, merged.PanelSerialNumbers)
	assert.Equal(t, "01/01/2024", merged.InstallDate)
	assert.True(t, merged.SignatureFound)

	merged.PanelSerialNumbers[0] = "changed"
	assert.Equal(t, "P-1", alt.PanelSerialNumbers[0])
}

func TestMergeFields_EmptyAltChangesNothing(t *testing.T) {
	local := domain.FieldSet{CustomerName: "X", PanelSerialNumbers: []string{"A"}, SignatureFound: true}
	assert.Equal(t, local, parser.MergeFields(local, domain.FieldSet{}))
}

func TestMergeExtractor(t *testing.T) {
	primary := &stubProvider{fields: &domain.FieldSet{CustomerName: "P"}}
	secondary := &stubProvider{fields: &domain.FieldSet{CustomerName: "S", InstallDate: "02/02/2024"}}
	m := parser.NewMergeExtractor(primary, secondary)

	fs, err := m.ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "P", fs.CustomerName)
	assert.Equal(t, "02/02/2024", fs.InstallDate)
}

func TestMergeExtractor_OneSideFails(t *testing.T) {
	primary := &stubProvider{err: errors.New("down")}
	secondary := &stubProvider{fields: &domain.FieldSet{CustomerName: "S"}}

	fs, err := parser.NewMergeExtractor(primary, secondary).ExtractFields(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "S", fs.CustomerName)

	bothDown := parser.NewMergeExtractor(primary, &stubProvider{err: errors.New("down too")})
	_, err = bothDown.ExtractFields(context.Background(), "text")
	assert.Error(t, err)
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, fs *domain.FieldSet)
	}{
		{
			name: "numbers coerced to text",
			raw:  `{"system_capacity_kw": 7.25, "utility_account_number": 1234567890, "panel_serial_numbers": ["A-1", 42]}`,
			check: func(t *testing.T, fs *domain.FieldSet) {
				assert.Equal(t, "7.25", fs.SystemCapacityKW)
				assert.Equal(t, "1234567890", fs.UtilityAccountNumber)
				assert.Equal(t, []string{"A-1", "42"}, fs.PanelSerialNumbers)
			},
		},
		{
			name: "blank and null dropped",
			raw:  `{"customer_name": "  ", "customer_address": null, "panel_serial_numbers": []}`,
			check: func(t *testing.T, fs *domain.FieldSet) {
				assert.Equal(t, domain.FieldSet{}, *fs)
			},
		},
		{
			name: "string boolean accepted",
			raw:  `{"signature_found": "true"}`,
			check: func(t *testing.T, fs *domain.FieldSet) {
				assert.True(t, fs.SignatureFound)
			},
		},
		{name: "extra key rejected", raw: `{"customer_name":"A","notes":"x"}`, wantErr: true},
		{name: "array is not an object", raw: `["a"]`, wantErr: true},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "object for scalar rejected", raw: `{"customer_name":{"first":"A"}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := parser.DecodeFields("test", tt.raw)
			if tt.wantErr {
				var exErr *domain.ExtractionError
				assert.True(t, errors.As(err, &exErr))
				return
			}
			require.NoError(t, err)
			tt.check(t, fs)
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := parser.NewProvider(&config.ParserProviderConfig{Provider: "nope"})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	parser.RegisterProvider("stub-a", func(*config.ParserProviderConfig) (parser.Provider, error) {
		return &stubProvider{fields: &domain.FieldSet{CustomerName: "A"}}, nil
	})
	parser.RegisterProvider("stub-b", func(*config.ParserProviderConfig) (parser.Provider, error) {
		return &stubProvider{fields: &domain.FieldSet{CustomerName: "B", InstallDate: "x"}}, nil
	})

	single, err := parser.NewFromConfig(&config.ParserConfig{Primary: config.ParserProviderConfig{Provider: "stub-a"}})
	require.NoError(t, err)
	_, isStub := single.(*stubProvider)
	assert.True(t, isStub)

	fb, err := parser.NewFromConfig(&config.ParserConfig{
		Primary:   config.ParserProviderConfig{Provider: "stub-a"},
		Secondary: config.ParserProviderConfig{Provider: "stub-b"},
	})
	require.NoError(t, err)
	assert.IsType(t, &parser.FallbackExtractor{}, fb)

	merged, err := parser.NewFromConfig(&config.ParserConfig{
		Mode:      "merge",
		Primary:   config.ParserProviderConfig{Provider: "stub-a"},
		Secondary: config.ParserProviderConfig{Provider: "stub-b"},
	})
	require.NoError(t, err)
	fs, err := merged.ExtractFields(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "A", fs.CustomerName)
	assert.Equal(t, "x", fs.InstallDate)
}

func TestNewLimiter(t *testing.T) {
	l := parser.NewLimiter(0)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	strict := parser.NewLimiter(1)
	_ = strict.Allow()
	assert.Error(t, parser.Wait(ctx, "p", strict))
}
