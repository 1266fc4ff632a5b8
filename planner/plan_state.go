package planner

import "github.com/YuNanlong/peloton-bwtree/common"

// Parameter is one bound parameter value from the host.
type Parameter struct {
	Value common.Value
}

// PlanState is the host-supplied per-statement state. The executor core
// consumes only the optional parameter list; everything else the host keeps
// to itself.
type PlanState struct {
	ParamList []Parameter
}
