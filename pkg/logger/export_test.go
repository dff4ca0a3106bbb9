package logger

// reset forgets the logger stored by Init.
func reset() {
	mu.Lock()
	instance = nil
	mu.Unlock()
}
