package redis

import (
	"context"
	"errors"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/funderdex/internal/db"
)

// PutDocuments stores JSON documents with one pipelined round trip of JSON.SET.
// The index picks them up through its key prefix, so index is not used here.
func (s *Store) PutDocuments(ctx context.Context, _ string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(docs))
	for _, d := range docs {
		cmds = append(cmds, s.b().JsonSet().Key(d.Key).Path("$").Value(string(d.Data)).Build())
	}

	var errs []error
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			errs = append(errs, &db.Error{Op: db.OpJSONSet, Err: errors.Join(errors.New(docs[i].Key), err)})
		}
	}
	return errors.Join(errs...)
}
