// Package main provides compioctl, a command-line front end over the
// compio archive API for manual inspection and debugging.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scigolib/compio"
)

func main() {
	mode := flag.String("mode", "r", "archive open mode: r, w, a, r+, w+, a+")
	degree := flag.Uint("degree", compio.DefaultBTreeDegree, "B-Tree minimum degree")
	blockSize := flag.Uint64("block-size", compio.DefaultBlockSize, "re-chunking block size in bytes")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		fmt.Println("Usage: compioctl [flags] <archive> <command> [args...]")
		fmt.Println("Commands:")
		fmt.Println("  ls                 list logical files and sizes")
		fmt.Println("  cat <name>         print a logical file's contents to stdout")
		fmt.Println("  put <name> <file>  write a host file's contents into a logical file")
		fmt.Println("  rm <name>          remove a logical file")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		os.Exit(2)
	}

	archivePath, cmd, rest := args[0], args[1], args[2:]

	cfg := compio.NewConfig(
		compio.WithBTreeDegree(uint32(*degree)),
		compio.WithBlockSize(*blockSize),
	)

	a, err := compio.Open(archivePath, compio.Mode(*mode), cfg)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close archive: %v", err)
		}
	}()

	switch cmd {
	case "ls":
		runLS(a)
	case "cat":
		requireArgs(rest, 1, "cat <name>")
		runCat(a, rest[0])
	case "put":
		requireArgs(rest, 2, "put <name> <file>")
		runPut(a, rest[0], rest[1])
	case "rm":
		requireArgs(rest, 1, "rm <name>")
		runRemove(a, rest[0])
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func requireArgs(args []string, n int, usage string) {
	if len(args) < n {
		log.Fatalf("usage: compioctl ... %s", usage)
	}
}

func runLS(a *compio.Archive) {
	names, err := a.ListFiles()
	if err != nil {
		log.Fatalf("ls: %v", err)
	}
	for _, n := range names {
		fh, err := a.OpenFile(n)
		if err != nil {
			log.Fatalf("ls %s: %v", n, err)
		}
		fmt.Printf("%s\t%d\n", n, fh.Size())
		_ = fh.Close()
	}
}

func runCat(a *compio.Archive, name string) {
	fh, err := a.OpenFile(name)
	if err != nil {
		log.Fatalf("cat %s: %v", name, err)
	}
	defer func() { _ = fh.Close() }()

	buf := make([]byte, fh.Size())
	n, err := fh.Read(buf)
	if err != nil && n == 0 && fh.Size() > 0 {
		log.Fatalf("cat %s: %v", name, err)
	}
	_, _ = os.Stdout.Write(buf[:n])
}

func runPut(a *compio.Archive, name, hostPath string) {
	//nolint:gosec // G304: operator-supplied path is the whole point of a CLI put command
	data, err := os.ReadFile(hostPath)
	if err != nil {
		log.Fatalf("put %s: %v", name, err)
	}

	fh, err := a.OpenFile(name)
	if err != nil {
		log.Fatalf("put %s: %v", name, err)
	}
	defer func() { _ = fh.Close() }()

	if _, err := fh.Write(data); err != nil {
		log.Fatalf("put %s: %v", name, err)
	}
}

func runRemove(a *compio.Archive, name string) {
	if err := a.RemoveFile(name); err != nil {
		log.Fatalf("rm %s: %v", name, err)
	}
}
