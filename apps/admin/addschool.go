package main

import (
	"context"
	"fmt"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/school"
)

func (cli *commandLine) addSchool(name, slug, email string) error {
	sch, err := cli.schRepo.Create(context.Background(), school.School{
		Name:  core.CleanString(name),
		Slug:  core.CleanString(slug, true /* lower */),
		Email: core.CleanString(email, true /* lower */),
	})
	if err != nil {
		return err
	}
	fmt.Printf("school %q registered with id %d\n", sch.Name, sch.ID)
	return nil
}
