package main

import (
	"context"
	"fmt"
)

// stats prints the user role breakdown, platform-wide or per school.
func (cli *commandLine) stats(schoolID int) error {
	s, err := cli.usrRepo.Stats(context.Background(), schoolID)
	if err != nil {
		return err
	}
	fmt.Printf("total:    %d\n", s.Total)
	fmt.Printf("admins:   %d\n", s.Admins)
	fmt.Printf("teachers: %d\n", s.Teachers)
	fmt.Printf("parents:  %d\n", s.Parents)
	fmt.Printf("students: %d\n", s.Students)
	return nil
}
