// Command demosite starts a demo website with known usability defects.
// Usage: go run ./cmd/demosite [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dubey22rohit/UX-Evaluator/internal/demosite"
)

func main() {
	cfg := demosite.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   UX-Evaluator Demo Site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Each page carries a known set of usability")
	fmt.Println("defects. Point the evaluator at the root URL")
	fmt.Println("to exercise every analyzer check:")
	fmt.Println()
	fmt.Println("  - Images without alt text")
	fmt.Println("  - Unlabeled form inputs")
	fmt.Println("  - Vague link text (\"click here\")")
	fmt.Println("  - Missing page titles")
	fmt.Println("  - Missing viewport meta tags")
	fmt.Println("  - Broken heading structure")
	fmt.Println()

	site := demosite.NewDemoSite(cfg)
	if err := site.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
