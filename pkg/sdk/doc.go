// Package voicematch embeds the voicematch speaker matching engine in a Go program.
//
// Speakers are enrolled from voice embeddings produced by an external
// extractor. Queries are then identified open-set (best enrolled speaker or
// unknown) or verified against one claimed speaker. Storage is Valkey/Redis
// or an embedded badger database.
//
//	vm, _ := voicematch.New(ctx, voicematch.WithBadger("./data"), voicematch.WithDimensions(192))
//	defer vm.Close()
//
//	_, _ = vm.Enroll(ctx, "Alice", [][]float32{s1, s2, s3})
//	id, _ := vm.Identify(ctx, voicematch.Query{Embedding: q})
//	if id.Identified {
//	    fmt.Println(id.Name, id.Confidence)
//	}
//
//	v, _ := vm.Verify(ctx, voicematch.Query{Embedding: q}, "Alice", voicematch.Threshold(80))
package voicematch
