package usecase

// CoordinatorCount は保持しているRender Coordinatorの数を返します。
func (u *diagnosisUsecase) CoordinatorCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.coordinators)
}
