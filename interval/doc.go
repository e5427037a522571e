/*Package interval implements set algebra over stranded genomic intervals:
  canonical sorting, strand-aware merging and subtraction, and per-chromosome
  complement against a table of chromosome lengths.
  All coordinates are 0-based and half-open, BED-style.  It assumes every
  position fits in a PosType, which is currently defined as int32 since
  that's what BAM files are limited to.
*/
package interval
