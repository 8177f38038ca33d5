/*Package interval implements the interval algebra used by the overlap
  engines (distance, overlap amount, per-region thresholds), plus BED input and
  output for region lists.

  Coordinates are 0-based half-open.  ReadBED plays the role of the
  retrieval collaborator: it produces a region.List that is already sorted per
  chromosome, and rejects input that is not.
*/
package interval
