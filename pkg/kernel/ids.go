package kernel

type PlanID string

func NewPlanID(id string) PlanID { return PlanID(id) }
func (p PlanID) String() string  { return string(p) }
func (p PlanID) IsEmpty() bool   { return string(p) == "" }

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }
