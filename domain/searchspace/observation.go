package searchspace

// ObservationFeatures is the feature-vector view of one observed point:
// a parameterization plus side information.
//
// FullParameterization is the shadow of the pre-cast flat parameterization,
// populated when features are cast to a hierarchical structure so that
// flattening can restore values that casting removed. It is an explicit
// field rather than a dynamically-keyed metadata entry so its presence is
// statically visible.
type ObservationFeatures struct {
	Parameters           Parameterization       `json:"parameters"`
	FullParameterization Parameterization       `json:"full_parameterization,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
}

// NewObservationFeatures wraps a parameterization
func NewObservationFeatures(parameters Parameterization) *ObservationFeatures {
	return &ObservationFeatures{Parameters: parameters.Clone()}
}

// Clone returns a deep copy
func (o *ObservationFeatures) Clone() *ObservationFeatures {
	clone := &ObservationFeatures{
		Parameters:           o.Parameters.Clone(),
		FullParameterization: o.FullParameterization.Clone(),
	}
	if o.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(o.Metadata))
		for k, v := range o.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// HasFullParameterization reports whether a pre-cast parameterization was
// stashed during hierarchical casting
func (o *ObservationFeatures) HasFullParameterization() bool {
	return o.FullParameterization != nil
}
