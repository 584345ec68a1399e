// Package gani provides an embeddable client for the GANI answer pipeline:
// intent-routed retrieval over per-namespace vector indexes in Redis, context
// packing, LLM generation through an OpenAI-compatible API, and answer
// verification with a grounding-based confidence score.
//
// The client wires the same pipeline the GANI HTTP server runs, minus the
// transport layer, so answers, health reports and stats match the API
// responses field for field.
//
//	client, err := gani.New(ctx,
//	    gani.WithRedis("localhost:6379", ""),
//	    gani.WithEmbeddingProvider("https://router.huggingface.co/v1", hfKey),
//	    gani.WithOpenRouterKey(orKey),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ans, err := client.Answer(ctx, "What does Ganesh work on?", "session_0001")
//
// Both providers degrade rather than fail: when retrieval or generation is
// unavailable the pipeline serves a fixed fallback answer with zero
// confidence instead of returning an error. Corpus loading is a separate
// concern; use the ganiload command to build the indexes this client reads.
package gani
