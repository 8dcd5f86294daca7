package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/funderdex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForReady_Ready(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT._LIST")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("funders:idx")))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_NoSearchModule(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT._LIST")).
		Return(mock.Result(mock.RedisError("ERR unknown command 'FT._LIST', with args beginning with: ")))

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), time.Second)
	if !errors.Is(err, ErrSearchModuleMissing) {
		t.Fatalf("expected ErrSearchModuleMissing, got %v", err)
	}
}

func TestIsRedisErr(t *testing.T) {
	serverErr := func(msg string) error {
		return mock.Result(mock.RedisError(msg)).Error()
	}
	tests := []struct {
		name string
		err  error
		sub  string
		want bool
	}{
		{"exists", serverErr("Index already exists"), "index already exists", true},
		{"unknown index", serverErr("Unknown Index name"), "unknown index name", true},
		{"no such index", serverErr("funders:idx: no such index"), "No such index", true},
		{"other message", serverErr("Syntax error"), "no such index", false},
		{"transport error", errors.New("no such index"), "no such index", false},
		{"nil", nil, "anything", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRedisErr(tc.err, tc.sub); got != tc.want {
				t.Errorf("isRedisErr(%v, %q) = %v, want %v", tc.err, tc.sub, got, tc.want)
			}
		})
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "funderdex:emb_cache:abc")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "funderdex:emb_cache:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "k")
	if errors.Is(err, db.ErrKeyNotFound) || !isDBError(err) {
		t.Errorf("expected db.Error (not ErrKeyNotFound), got %v", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "3600")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_NoExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), time.Minute); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

// --- json.go tests ---

func TestPutDocuments_Pipelined(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("JSON.SET", "funder:funders:ford", "$", `{"funderName":"Ford"}`),
			mock.Match("JSON.SET", "funder:funders:kresge", "$", `{"funderName":"Kresge"}`),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("OK")),
		})

	s := NewStoreForTest(c)
	err := s.PutDocuments(context.Background(), "funders:idx", []db.Document{
		{Key: "funder:funders:ford", Data: []byte(`{"funderName":"Ford"}`)},
		{Key: "funder:funders:kresge", Data: []byte(`{"funderName":"Kresge"}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPutDocuments_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisError("ERR new objects must be created at the root")),
		})

	s := NewStoreForTest(c)
	err := s.PutDocuments(context.Background(), "funders:idx", []db.Document{
		{Key: "a", Data: []byte(`{}`)},
		{Key: "b", Data: []byte(`{}`)},
	})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestPutDocuments_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.PutDocuments(context.Background(), "funders:idx", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestCreateIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "funders:idx", "ON", "JSON", "PREFIX", "1", "funder:funders:", "SCHEMA",
			"$.funderName", "AS", "funderName", "TEXT",
			"$.funderNameSort", "AS", "funderNameSort", "TAG", "SORTABLE",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:     "funders:idx",
		Prefixes: []string{"funder:funders:"},
		Fields: []db.IndexField{
			{Path: "$.funderName", Alias: "funderName", Type: db.IndexFieldText},
			{Path: "$.funderNameSort", Alias: "funderNameSort", Type: db.IndexFieldTag, Sortable: true},
		},
	}
	if err := s.CreateIndex(context.Background(), idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "funders:idx",
		Fields: []db.IndexField{{Path: "$.issueAreas[*]", Alias: "issueAreas", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	idx := &db.IndexDefinition{
		Name:   "funders:idx",
		Fields: []db.IndexField{{Path: "f", Type: db.IndexFieldTag}},
	}
	if err := s.CreateIndex(context.Background(), idx); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestDropIndex_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "funders:idx")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "funders:idx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "funders:idx")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	err := s.DropIndex(context.Background(), "funders:idx")
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name  string
		reply rueidis.RedisResult
		want  bool
	}{
		{"exists", mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("funders:idx"))), true},
		{"absent", mock.Result(mock.RedisError("Unknown Index name")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := mock.NewClient(ctrl)
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "funders:idx")).Return(tt.reply)

			exists, err := NewStoreForTest(c).IndexExists(context.Background(), "funders:idx")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exists != tt.want {
				t.Errorf("exists = %t, want %t", exists, tt.want)
			}
		})
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "funders:idx"})
	if !isDBError(err) {
		t.Fatalf("expected db.Error without touching redis, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Path: "f", Type: db.IndexFieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{Name: "funders:idx"})
	if err == nil {
		t.Error("expected error for empty fields")
	}
}

func TestBuildCreateArgs_NoPrefix(t *testing.T) {
	args, err := buildCreateArgs(&db.IndexDefinition{
		Name:   "funders:idx",
		Fields: []db.IndexField{{Path: "$.funderName", Type: db.IndexFieldText}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertArgs(t, args, []string{"funders:idx", "ON", "JSON", "SCHEMA", "$.funderName", "TEXT"})
}

func TestBuildFieldArgs_AllTypes(t *testing.T) {
	tests := []struct {
		name  string
		field db.IndexField
		want  []string
	}{
		{"tag", db.IndexField{Path: "f", Type: db.IndexFieldTag}, []string{"f", "TAG"}},
		{"text", db.IndexField{Path: "f", Type: db.IndexFieldText}, []string{"f", "TEXT"}},
		{"tag sortable", db.IndexField{Path: "f", Type: db.IndexFieldTag, Sortable: true}, []string{"f", "TAG", "SORTABLE"}},
		{
			"tag options",
			db.IndexField{Path: "$.issueAreas[*]", Alias: "issueAreas", Type: db.IndexFieldTag, TagSeparator: "|", TagCaseSensitive: true},
			[]string{"$.issueAreas[*]", "AS", "issueAreas", "TAG", "SEPARATOR", "|", "CASESENSITIVE"},
		},
		{
			"vector tuned",
			db.IndexField{
				Path: "$.overview.embedding", Alias: "overviewVec", Type: db.IndexFieldVector,
				VectorDim: 256, VectorM: 16, VectorEFConstruct: 200,
			},
			[]string{
				"$.overview.embedding", "AS", "overviewVec", "VECTOR", "HNSW", "10",
				"TYPE", "FLOAT32", "DIM", "256", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200",
			},
		},
		{
			"vector engine defaults",
			db.IndexField{Path: "v", Type: db.IndexFieldVector, VectorDim: 8},
			[]string{"v", "VECTOR", "HNSW", "6", "TYPE", "FLOAT32", "DIM", "8", "DISTANCE_METRIC", "COSINE"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := buildFieldArgs(&tc.field)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertArgs(t, args, tc.want)
		})
	}
}

func TestBuildFieldArgs_UnknownType(t *testing.T) {
	if _, err := buildFieldArgs(&db.IndexField{Path: "f", Type: db.IndexFieldType(99)}); err == nil {
		t.Error("expected error for unknown field type")
	}
}

// --- helpers ---

func assertArgs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("args = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q (full: %q)", i, got[i], want[i], got)
		}
	}
}

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
