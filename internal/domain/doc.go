// Package domain models beach water-quality ("balneabilidade") readings
// published by the state environmental agency as PDF reports ("laudos").
//
// # Data Source
//
// The agency publishes a listing page with links to report PDFs. Each report
// covers one or more collection dates and lists monitored points by code:
//
//	P19  Praia do Meio  Em frente à Rua X  02/02/2026  IMPRÓPRIO
//
// Codes are one to three uppercase letters followed by one to three digits
// (P1, P19, SL104). Report file names usually embed the publication date as
// dd_mm_yyyy (e.g. "laudo_02_02_2026.pdf"); link text may carry dd/mm/yyyy.
//
// # Status Values
//
// The raw status cell is free text: "PRÓPRIO", "Impróprio", quoted values,
// OCR-era typos with a dropped letter ("IMPROPIO"). [NormalizeStatus] maps it
// to one of [StatusProper], [StatusImproper], [StatusUnknown]. IMPROPER is
// checked first because "IMPROPRIO" contains "PROPRIO".
//
// # History Model
//
// A [StationRecord] keeps the reading history of a single point, newest
// first, with at most one entry per date. A later reading for an existing
// date replaces it. Latest is always History[0].
//
// [ApplyBatch] adds a global recency guard on top of [MergeReadings]: a batch
// whose newest reading is not strictly newer than the feed's newest reading
// is rejected as a whole, so an old report re-published or fetched out of
// order never regresses the map.
package domain
