package validator_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fivetwenty-io/optimade-validator/internal/console"
	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	validatorhttp "github.com/fivetwenty-io/optimade-validator/internal/http"
	"github.com/fivetwenty-io/optimade-validator/internal/logging"
	"github.com/fivetwenty-io/optimade-validator/internal/testutil"
	"github.com/fivetwenty-io/optimade-validator/internal/validator"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalBaseInfo = `{"data":{"attributes":{"entry_types_by_format":{"json":["structures"]}}}}`

type recorder struct {
	results []optimade.TestResult
}

func (r *recorder) Observe(result optimade.TestResult) {
	r.results = append(r.results, result)
}

type fakeClient struct {
	get  func(ctx context.Context, path string) (*validatorhttp.Response, error)
	last string
}

func (c *fakeClient) Get(ctx context.Context, path string) (*validatorhttp.Response, error) {
	c.last = "http://fake.test/" + path

	return c.get(ctx, path)
}

func (c *fakeClient) BaseURL() string {
	return "http://fake.test"
}

func (c *fakeClient) LastRequestURL() string {
	return c.last
}

func newValidator(t *testing.T, srv *testutil.Server, verbosity optimade.Verbosity, opts ...validator.Option) (*validator.Validator, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	config := &optimade.Config{
		BaseURL:   srv.URL,
		Verbosity: verbosity,
		RetryWait: time.Millisecond,
	}

	opts = append([]validator.Option{validator.WithPrinter(console.NewPrinter(&out))}, opts...)

	v, err := validator.New(config, opts...)
	require.NoError(t, err)

	return v, &out
}

func TestNew(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}

	tests := []struct {
		name    string
		config  *optimade.Config
		opts    []validator.Option
		wantErr error
	}{
		{name: "nil config", config: nil, wantErr: optimade.ErrConfigRequired},
		{name: "neither URL nor client", config: &optimade.Config{}, wantErr: constants.ErrBaseURLOrClientRequired},
		{
			name:    "both URL and client",
			config:  &optimade.Config{BaseURL: "http://localhost:5000"},
			opts:    []validator.Option{validator.WithClient(client)},
			wantErr: constants.ErrBaseURLAndClient,
		},
		{
			name:    "negative attempts",
			config:  &optimade.Config{BaseURL: "http://localhost:5000", MaxAttempts: -1},
			wantErr: constants.ErrInvalidMaxAttempts,
		},
		{
			name:    "negative verbosity",
			config:  &optimade.Config{BaseURL: "http://localhost:5000", Verbosity: -1},
			wantErr: constants.ErrInvalidVerbosity,
		},
		{name: "URL only", config: &optimade.Config{BaseURL: "http://localhost:5000"}},
		{name: "client only", config: &optimade.Config{}, opts: []validator.Option{validator.WithClient(client)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := validator.New(tc.config, tc.opts...)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, v)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, optimade.ValidityUnknown, v.Validity())
			assert.Equal(t, []string{"structures"}, v.EntryTypes())
		})
	}
}

func TestRun_ScenarioA(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t, testutil.WithBaseInfoBody(minimalBaseInfo))
	v, out := newValidator(t, srv, optimade.VerbosityInfo)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, 4, v.SuccessCount())
	assert.Equal(t, 0, v.FailureCount())
	assert.Equal(t, optimade.ValidityValid, v.Validity())
	assert.Equal(t, 0, v.Validity().ExitCode())
	assert.Equal(t, map[string]string{"structures": "abc"}, v.TestIDs())

	output := out.String()
	assert.Contains(t, output, "✔: "+srv.URL+"/info - successfully found available entry types in base info: structures")
	assert.Contains(t, output, "✔: "+srv.URL+"/structures/abc - serialized correctly as EntryResponseOne")
	assert.True(t, strings.HasSuffix(output, "Passed 4 out of 4 tests.\n"), output)
	assert.Equal(t, 1, srv.Hits("structures/abc"))
}

func TestRun_ScenarioB(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t, testutil.WithStatus("info", 500))
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 3, v.SuccessCount())
	assert.Equal(t, optimade.ValidityInvalid, v.Validity())
	assert.Equal(t, 1, v.Validity().ExitCode())
	assert.Equal(t, []string{"structures"}, v.EntryTypes())
	assert.Equal(t, 1, srv.Hits("info/structures"))
	assert.Equal(t, 1, srv.Hits("structures"))

	expected := "✖: " + srv.URL + "/info - failed with error\n" +
		"\tResponseError: Request to endpoint info returned 500\n" +
		"Passed 3 out of 4 tests.\n"
	assert.Equal(t, expected, out.String())
}

func TestRun_ScenarioC(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t, testutil.WithEntries("structures"))
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 2, v.SuccessCount())
	assert.Equal(t, 1, v.SkippedCount())
	assert.Empty(t, v.TestIDs())
	assert.Equal(t, 1, v.Validity().ExitCode())
	assert.Equal(t, 3, srv.TotalHits())
	assert.Contains(t, out.String(), "\tResponseError: No entries found under endpoint to scrape ID from.\n")

	results := v.Results()
	require.Len(t, results, 4)
	assert.Equal(t, constants.StageSingleEntry, results[3].Stage)
	assert.Equal(t, optimade.StatusSkipped, results[3].Status)
}

func TestRun_DiscoveryUnion(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithEntryTypes("structures", "references", "calculations"),
		testutil.WithEntries("references", testutil.Entry{ID: "ref-1"}, testutil.Entry{ID: "ref-2"}),
		testutil.WithEntries("calculations", testutil.Entry{ID: "calc-1"}),
	)
	v, _ := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, []string{"calculations", "references", "structures"}, v.EntryTypes())
	assert.Equal(t, map[string]string{
		"calculations": "calc-1",
		"references":   "ref-1",
		"structures":   "abc",
	}, v.TestIDs())
	assert.Equal(t, 10, v.SuccessCount())
	assert.Equal(t, 0, v.FailureCount())
	assert.Subset(t, v.SchemaKeys(), []string{"info/references", "references", "references/", "info/calculations"})
}

func TestRun_RejectsInfoEntryType(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithEntryTypes("structures", "info", "references"),
		testutil.WithEntries("references", testutil.Entry{ID: "ref-1"}),
	)
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, []string{"references", "structures"}, v.EntryTypes())
	assert.NotContains(t, v.EntryTypes(), "info")
	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 6, v.SuccessCount())
	assert.Contains(t, out.String(), "\tManualValidationError: Illegal entry \"info\" was found in entry_types_by_format\n")
}

func TestRun_ManualExtractionFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "empty body", body: "", reason: "Unable to get entry types from base info endpoint"},
		{name: "empty object", body: "{}", reason: "Unable to get entry types from base info endpoint"},
		{
			name:   "missing key",
			body:   `{"data":{"attributes":{}}}`,
			reason: "Unable to get entry_types_by_format from unserializable base info response",
		},
		{
			name:   "wrong type",
			body:   `{"data":{"attributes":{"entry_types_by_format":{"json":"structures"}}}}`,
			reason: "Unable to get entry_types_by_format from unserializable base info response",
		},
		{
			name:   "empty list",
			body:   `{"data":{"attributes":{"entry_types_by_format":{"json":[]}}}}`,
			reason: "Unable to find any JSON entry types in entry_types_by_format",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := testutil.NewServer(t, testutil.WithBody("info", tc.body))
			v, _ := newValidator(t, srv, optimade.VerbositySilent)

			require.NoError(t, v.Run(context.Background()))

			results := v.Results()
			require.NotEmpty(t, results)
			assert.Equal(t, optimade.StatusFailed, results[0].Status)
			assert.Equal(t, "ResponseError: "+tc.reason, results[0].Message)
			assert.Equal(t, []string{"structures"}, v.EntryTypes())
			assert.Equal(t, 1, v.FailureCount())
			assert.Equal(t, 3, v.SuccessCount())
		})
	}
}

func TestRun_MultiEntryReportsBothErrors(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithStatus("structures", 500),
		testutil.WithBody("structures", `{"errors":[{"detail":"boom"}]}`),
	)
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 1, v.SkippedCount())

	output := out.String()
	assert.Contains(t, output, "\tResponseError: Request to endpoint structures returned 500\n")
	assert.Contains(t, output, "\tValidationError: ")
}

func TestRun_EntryTypeMismatch(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithEntries("structures", testutil.Entry{ID: "abc", Type: "calculations"}),
	)
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, map[string]string{"calculations": "abc"}, v.TestIDs())
	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 1, v.SkippedCount())
	assert.Contains(t, out.String(), "ManualValidationError: Entry 0 (id \"abc\") under endpoint structures has type \"calculations\"")
}

func TestRun_MixedListingStillRegistersFirstID(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithEntries("structures",
			testutil.Entry{ID: "abc", Type: "structures"},
			testutil.Entry{ID: "x", Type: "references"},
		),
	)
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, map[string]string{"structures": "abc"}, v.TestIDs())
	assert.Equal(t, 1, srv.Hits("structures/abc"))
	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 3, v.SuccessCount())
	assert.Zero(t, v.SkippedCount())
	assert.Contains(t, out.String(), "ManualValidationError: Entry 1 (id \"x\") under endpoint structures has type \"references\"")
}

func TestRun_SingleEntryIDMismatch(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t, testutil.WithBody("structures/abc",
		`{"data":{"id":"xyz","type":"structures"},"meta":{"query":{"representation":"/structures/abc"},"api_version":"1.0.0","more_data_available":false}}`))
	v, out := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, 1, v.FailureCount())
	assert.Equal(t, 3, v.SuccessCount())
	assert.Contains(t, out.String(), `ManualValidationError: Requested structures entry "abc" but received "xyz"`)
}

func TestRun_RateLimit(t *testing.T) {
	t.Parallel()

	t.Run("recovers within budget", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewServer(t, testutil.WithRateLimit("structures", 4))
		v, _ := newValidator(t, srv, optimade.VerbositySilent)

		require.NoError(t, v.Run(context.Background()))

		assert.Equal(t, 5, srv.Hits("structures"))
		assert.Equal(t, optimade.ValidityValid, v.Validity())
	})

	t.Run("exhausted budget is a failure", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewServer(t, testutil.WithRateLimit("info", 10))
		v, out := newValidator(t, srv, optimade.VerbositySilent)

		require.NoError(t, v.Run(context.Background()))

		assert.Equal(t, 5, srv.Hits("info"))
		assert.Equal(t, 1, v.FailureCount())
		assert.Equal(t, 3, v.SuccessCount())
		assert.Contains(t, out.String(), "\tRetriesExhaustedError: hit max (manual) retries on request")
	})
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t,
		testutil.WithEntryTypes("structures", "references"),
		testutil.WithStatus("info/references", 404),
	)
	v, _ := newValidator(t, srv, optimade.VerbositySilent)

	require.NoError(t, v.Run(context.Background()))

	firstSuccesses, firstFailures, firstSkipped := v.SuccessCount(), v.FailureCount(), v.SkippedCount()
	firstStatuses := statuses(v.Results())

	require.NoError(t, v.Run(context.Background()))

	assert.Equal(t, firstSuccesses, v.SuccessCount())
	assert.Equal(t, firstFailures, v.FailureCount())
	assert.Equal(t, firstSkipped, v.SkippedCount())
	assert.Equal(t, firstStatuses, statuses(v.Results()))

	other, _ := newValidator(t, srv, optimade.VerbositySilent)
	require.NoError(t, other.Run(context.Background()))
	assert.Equal(t, firstStatuses, statuses(other.Results()))
}

func statuses(results []optimade.TestResult) []string {
	out := make([]string, 0, len(results))
	for _, result := range results {
		out = append(out, result.Stage+"/"+result.Name+"="+string(result.Status))
	}

	return out
}

func TestRun_Verbosity(t *testing.T) {
	t.Parallel()

	t.Run("silent prints only the summary", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewServer(t)
		v, out := newValidator(t, srv, optimade.VerbositySilent)

		require.NoError(t, v.Run(context.Background()))

		assert.Equal(t, "Passed 4 out of 4 tests.\n", out.String())
	})

	t.Run("info prints the summary once", func(t *testing.T) {
		t.Parallel()

		srv := testutil.NewServer(t)

		var out bytes.Buffer

		v, err := validator.New(&optimade.Config{
			BaseURL:   srv.URL,
			Verbosity: optimade.VerbosityInfo,
			RetryWait: time.Millisecond,
			Logger:    logging.New(optimade.VerbosityInfo, &out),
		}, validator.WithPrinter(console.NewPrinter(&out)))
		require.NoError(t, err)

		require.NoError(t, v.Run(context.Background()))

		assert.Equal(t, 1, strings.Count(out.String(), "Passed 4 out of 4 tests."), out.String())
		assert.Contains(t, out.String(), "Testing "+srv.URL+"...")
	})
}

func TestRun_FatalErrors(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		name string
		get  func(ctx context.Context, path string) (*validatorhttp.Response, error)
		want error
	}{
		{
			name: "unexpected error",
			get: func(context.Context, string) (*validatorhttp.Response, error) {
				return nil, errBoom
			},
			want: errBoom,
		},
		{
			name: "panic",
			get: func(context.Context, string) (*validatorhttp.Response, error) {
				panic("unreachable state")
			},
			want: validator.ErrPanic,
		},
		{
			name: "cancelled context",
			get: func(ctx context.Context, _ string) (*validatorhttp.Response, error) {
				return nil, context.Canceled
			},
			want: context.Canceled,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := validator.New(&optimade.Config{},
				validator.WithClient(&fakeClient{get: tc.get}),
				validator.WithPrinter(console.Discard()),
			)
			require.NoError(t, err)

			err = v.Run(context.Background())
			require.ErrorIs(t, err, tc.want)

			internalErr := &optimade.InternalError{}
			require.ErrorAs(t, err, &internalErr)
			assert.NotEmpty(t, internalErr.Stack)
			assert.False(t, optimade.IsRecoverable(err))
			assert.Equal(t, optimade.ValidityUnknown, v.Validity())
			assert.Equal(t, 2, v.Validity().ExitCode())
		})
	}
}

func TestRun_ObserverAndReport(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t, testutil.WithEntries("structures"))
	rec := &recorder{}
	v, _ := newValidator(t, srv, optimade.VerbositySilent, validator.WithObserver(rec))

	require.NoError(t, v.Run(context.Background()))

	assert.Len(t, rec.results, 4)

	report := v.Report()
	_, err := uuid.Parse(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, report.BaseURL)
	assert.Equal(t, optimade.ValidityInvalid, report.Validity)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "Passed 2 out of 3 tests.", report.SummaryLine())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.Equal(t, rec.results, report.Tests)
}

func TestRun_UserAgent(t *testing.T) {
	t.Parallel()

	srv := testutil.NewServer(t)

	v, err := validator.New(&optimade.Config{
		BaseURL:   srv.URL,
		UserAgent: "optimade-validator/1.2.3",
	}, validator.WithPrinter(console.Discard()))
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	assert.Equal(t, "optimade-validator/1.2.3", srv.LastHeaders().Get("User-Agent"))
	assert.Equal(t, "application/json", srv.LastHeaders().Get("Accept"))
}
