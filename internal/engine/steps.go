package engine

// step is one unit of a settlement. compensate undoes a successful execute
// and may be nil for the final, irreversible step.
type step struct {
	name       string
	execute    func() error
	compensate func()
}

// runSteps executes steps in order. When one fails, the steps that already
// succeeded are compensated in reverse order and the failure is returned.
func runSteps(steps []step) error {
	for i, s := range steps {
		if err := s.execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].compensate != nil {
					steps[j].compensate()
				}
			}
			return err
		}
	}
	return nil
}
