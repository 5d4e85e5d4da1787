package trace

// DeliveryTrace collects the logged samples of one nanoparticle in append order.
type DeliveryTrace struct {
	NanoparticleID string
	Samples        []SampleRecord
}

// NewDeliveryTrace creates a DeliveryTrace ready for recording.
func NewDeliveryTrace(nanoparticleID string) *DeliveryTrace {
	return &DeliveryTrace{
		NanoparticleID: nanoparticleID,
		Samples:        make([]SampleRecord, 0),
	}
}

// Record appends a sample.
func (dt *DeliveryTrace) Record(record SampleRecord) {
	dt.Samples = append(dt.Samples, record)
}
