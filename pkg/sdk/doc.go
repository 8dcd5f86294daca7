// Package funderdex is an embeddable Go client for the funderdex grant-funder
// search engine, backed by Redis with search modules or by a local bleve index.
//
// The client runs the same search pipeline as the HTTP server: query
// resolution, collection routing, post-filtering and score scaling.
//
//	client, _ := funderdex.New(ctx, funderdex.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	funders, _ := client.Search().
//	    Query("youth arts").
//	    IssueAreas("Arts & Culture").
//	    Locations("Michigan").
//	    Match(funderdex.MatchAll).
//	    Do(ctx)
//
// # Semantic search
//
// Semantic search needs an Embedder and a Redis backend:
//
//	client, _ := funderdex.New(ctx,
//	    funderdex.WithRedis("localhost:6379", ""),
//	    funderdex.WithEmbedder(myEmbedder),
//	)
//	funders, _ := client.Search().Query("climate resilience").Semantic().Do(ctx)
//
// # Local index
//
// WithBleve keeps the indexes on disk (or in memory for an empty dir), which
// suits tests and single-process tools:
//
//	client, _ := funderdex.New(ctx, funderdex.WithBleve(""))
//	_, _ = client.EnsureIndexes(ctx)
//	_, _ = client.Load(ctx, "funders", file)
package funderdex
