/*Package region defines the data model shared by every region operation:
  genomic intervals [Start, End) owned by a dataset, optionally carrying a
  typed payload, grouped per chromosome.

  Every Regions sequence handed to an algorithm in this module must already be
  sorted by (Start, End).  None of the algorithms sort; they only merge.
  Violating that precondition yields undefined results.  List.Validate is
  available to producers that want to check their output.
*/
package region
