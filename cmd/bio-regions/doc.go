/*Command bio-regions runs interval operations on sorted BED files and writes
  the resulting regions as BED to stdout.  Each chromosome is processed
  independently; -parallelism bounds how many run at once.

  Subcommands:

    intersect  data regions that overlap any filter region
    filter     data regions by minimum overlap, or minimum distance with -overlap=false
    count      the number of regions filter would print
    disjoin    non-overlapping segments covering the union of the inputs
    merge      all inputs merged into one sorted list
    extend     regions grown by -length bases
    flank      windows of -length bases placed -offset bases from each region
    tiles      fixed-size tiles over the chromosomes of -genome

  Example: bio-regions filter -amount 10 -amount-type % peaks.bed.gz genes.bed
*/
package main
