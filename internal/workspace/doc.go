// Package workspace owns the scratch directory that holds the source checkout.
//
// The directory lives at a fixed path so operators can inspect the last
// run's checkout and finished stylesheet. It is erased at the start of every
// run; nothing in it survives into the next run.
package workspace
