// Package imdbtsv parses the IMDb title.basics dataset, a tab separated file with
// one header line and nine fields per row, into an in-memory collection of titles
// using all available cores.
//
// # How a run works
//
// The calling goroutine reads the input into one shared buffer and cuts it into
// line aligned ranges of roughly equal size. A fixed pool of workers parses the
// ranges concurrently. Records never copy their fields: each field is a byte range
// into the shared buffer, decoded and interned on first access. Each worker links
// the records of a range into a local chain and appends the chain to the shared
// result without taking a lock.
//
// # Basic Usage
//
//	titles, err := imdbtsv.Parse(reader, runtime.NumCPU())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for title := range titles.All() {
//	    fmt.Println(title.TConst(), title.PrimaryTitle())
//	}
//
// # Options
//
// ParseOptions controls the worker count, the buffer size and growth, the target
// range size and the merge order. The buffer starts at DefaultBufferSize and doubles
// as needed; WithoutBufferGrowth makes oversized input fail with ErrCapacityExceeded
// instead:
//
//	opts := imdbtsv.NewParseOptions().
//	    WithWorkers(8).
//	    WithBufferSize(1 << 30).
//	    WithMergeOrder(imdbtsv.MergeOrderInput)
//
//	titles, err := imdbtsv.ParseFile(ctx, "title.basics.tsv.gz", opts)
//
// With MergeOrderCompletion (the default) ranges are appended as soon as they are
// parsed, so only the order of records within a range follows the input. With
// MergeOrderInput the result follows the input order exactly.
//
// # Errors
//
// A run either completes or fails as a whole. Failures wrap ErrIO,
// ErrCapacityExceeded, ErrMalformedRange or ErrInvalidOptions and can be tested
// with errors.Is.
//
// # Export
//
// Parsed titles can be written as TSV, CSV, LTSV, Parquet or XLSX, optionally
// compressed (DumpTitles, DumpTitlesToFile), or loaded into SQLite for ad hoc
// queries (OpenSQLite, LoadIntoDB).
package imdbtsv
