package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/shulehq/shule/core/school"
	"github.com/shulehq/shule/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	schRepo school.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -email EMAIL [-first NAME] [-last NAME] [-school ID] [-admin] - create or update a user; the password is prompted next")
	fmt.Println("  addschool -name NAME -slug SLUG [-email EMAIL] - register a school")
	fmt.Println("  migratedb [up|down] - run database migrations")
	fmt.Println("  stats [-school ID] - print the user role breakdown")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserFirst := addUserCmd.String("first", "", "First name.")
	addUserLast := addUserCmd.String("last", "", "Last name.")
	addUserSchool := addUserCmd.Int("school", 0, "School ID to affiliate the user with.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant the ADMIN role.")

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ExitOnError)
	addSchoolName := addSchoolCmd.String("name", "", "The school's display name.")
	addSchoolSlug := addSchoolCmd.String("slug", "", "URL-safe unique identifier.")
	addSchoolEmail := addSchoolCmd.String("email", "", "Contact email for admissions notifications.")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	statsSchool := statsCmd.Int("school", 0, "Restrict the breakdown to one school (0 = platform-wide).")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserEmail, *addUserFirst, *addUserLast, string(pwd), *addUserSchool, *addUserAdmin)
	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolName == "" || *addSchoolSlug == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		return cli.addSchool(*addSchoolName, *addSchoolSlug, *addSchoolEmail)
	case "migratedb":
		return cli.migrateDB(args[2:])
	case "stats":
		if err := statsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.stats(*statsSchool)
	default:
		cli.printUsage()
		return errHelp
	}
}
