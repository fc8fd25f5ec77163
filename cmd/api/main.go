package main

import (
	"context"
	"log"

	"github.com/commercekit/commerce-core/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("commerce API exited: %v", err)
	}
}
