// Package hepconv converts decay-event records between storage formats.
//
// Events carry two vertex scalars and three kaon candidates. They are read
// from chained Parquet files (record set "DecayTree") and written as Avro
// object containers, Arrow IPC files or SQLite tables, or streamed through
// the muon veto. A column-projecting filter scan counts vetoed rows without
// materialising events.
//
// # Architecture
//
//   - pkg/models: the Event record and the 26-column catalogue
//   - pkg/formats: format tokens, the reader/writer contract and dispatch
//   - pkg/formats/{tree,rowbinary,columnbinary,relational}: storage engines
//   - pkg/scan: the filter scan
//   - pkg/analysis: the muon veto and histogram stub
//   - internal/driver: one run end to end
//   - cmd/hepconv: the command line
//
// # Quick Start
//
//	hepconv -i run1.parquet -i run2.parquet -o sqlite   # writes run1.sqlite
//	hepconv -i run1.sqlite                              # muon veto over SQLite
//	hepconv -r -i run1.parquet                          # filter scan
//
// Settings come from the YAML file named by HEPCONV_CONFIG and HEPCONV_*
// environment variables; see pkg/config.
package hepconv
