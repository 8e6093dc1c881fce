// Command jsonla is the relational-algebra-over-JSONL engine's CLI front
// end: one subcommand per operator, plus schema inspection and an
// interactive workspace (repl).
//
// Usage:
//
//	jsonla select 'age > 30' users.jsonl
//	jsonla project --flatten name,age,city=address.city users.jsonl
//	jsonla join --on id=user_id --mode left left.jsonl right.jsonl
//	jsonla groupby --agg sum:salary=total dept users.jsonl
//	jsonla schema infer users.jsonl
//	jsonla repl users.jsonl
//
// Flags are parsed with the standard flag package, so they must come
// before a subcommand's positional arguments.
//
// Every subcommand reads JSONL from its last file argument, or stdin when
// that argument is "-" or omitted, and writes JSONL to stdout unless
// -output redirects it. Exit codes are mapped from the error's
// jsonlaerr.Kind by jsonlaerr.Kind.ExitCode.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mxkacsa/jsonla/jsonlaerr"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "select":
		err = cmdSelect(args)
	case "project":
		err = cmdProject(args)
	case "rename":
		err = cmdRename(args)
	case "distinct":
		err = cmdDistinct(args)
	case "sort":
		err = cmdSort(args)
	case "union":
		err = cmdUnion(args)
	case "intersection":
		err = cmdIntersection(args)
	case "difference":
		err = cmdDifference(args)
	case "product":
		err = cmdProduct(args)
	case "join":
		err = cmdJoin(args)
	case "groupby":
		err = cmdGroupBy(args)
	case "agg":
		err = cmdAgg(args)
	case "schema":
		err = cmdSchema(args)
	case "repl":
		err = cmdRepl(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "jsonla: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `jsonla: a relational-algebra engine over JSONL

Commands:
  select EXPR [FILE]                filter records by a boolean expression
  project FIELDS [FILE]              select/compute output fields
  rename MAP [FILE]                  from=to path renames
  distinct [FILE]                    drop duplicate records
  sort KEYS [FILE]                   stable multi-key sort
  union A B | intersection A B | difference A B | product A B
  join --on l=r[,l=r...] A B         equi-join
  groupby [--agg SPEC] KEY[,KEY...] [FILE]  bucket by key, optionally aggregate
  agg SPEC [FILE]                    aggregate group-annotated input
  schema infer [FILE] | schema validate SCHEMA FILE
  repl [FILE]                        interactive workspace

Run 'jsonla <command> -h' for command-specific flags.`)
}

// fail reports err to stderr and exits with the code its jsonlaerr.Kind
// maps to, or 1 for errors that carry no Kind.
func fail(err error) {
	var je *jsonlaerr.Error
	if errors.As(err, &je) {
		fmt.Fprintf(os.Stderr, "jsonla: %v\n", err)
		os.Exit(je.Kind.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "jsonla: %v\n", err)
	os.Exit(1)
}
