package services

import "fmt"

func errNotConfigured(name string) error {
	return fmt.Errorf("%s is not configured", name)
}
