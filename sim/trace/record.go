// Package trace summarizes the biodistribution sample log of a nanoparticle.
// It has no dependencies on sim/ and stores pure data types.
package trace

import "time"

// SampleRecord captures one logged tissue concentration.
type SampleRecord struct {
	Tissue            string
	ConcentrationUgMl float64
	Timestamp         time.Time
}
