// Package feedrank provides an embedded Go client for the feedrank
// recommendation engine backed by Valkey, Redis, SQLite or process memory.
//
// The client keeps post and user embeddings fresh and ranks posts against
// a query vector, a stored user vector or free text:
//
//	client, _ := feedrank.New(ctx,
//	    feedrank.WithValkey("localhost:6379", ""),
//	    feedrank.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	_, _ = client.ImportPosts(ctx, postsJSONL)
//	_, _ = client.ImportUsers(ctx, usersJSONL)
//	summary, _ := client.RefreshAll(ctx)
//	recs, _ := client.RecommendForUser(ctx, "u1", 10, feedrank.ModeBlend)
//
// Vectors produced by the embedder are reduced to WithDimensions (default 3)
// before they are stored or compared.
package feedrank
