// Package radbatch provides an embeddable batch radiomics feature extractor.
//
// A Batch reads a cohort laid out as imagesTr/<case>_0000.nii.gz and
// labelsTr/<case>.nii.gz, extracts features for every case in a range and
// writes one CSV table with a row per case. Image-valued features are
// written next to the case as separate volumes.
//
// # Basic Usage
//
//	cfg := radbatch.DefaultConfig()
//	cfg.DataDir = "/data/kits19"
//	cfg.Start, cfg.End = 0, 10
//
//	b, err := radbatch.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	summary, err := b.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary.TablePath, summary.Rows)
//
// # Extractors
//
// The native extractor computes first-order and shape features in Go. Set
// Config.Extractor to [ExtractorPyradiomics] to run the pyradiomics CLI for
// each case instead, or inject any implementation with [WithExtractor].
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to be told
// about every finished or failed case.
//
// # Watch Mode
//
// [Batch.Watch] processes masks as they appear in the labels directory and
// rewrites the table after every case until its context is cancelled.
package radbatch
