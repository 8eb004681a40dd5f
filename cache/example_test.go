package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/toolflow/cache"
)

func ExampleCache() {
	c, err := cache.New[string, string](cache.Config{
		MaxSize: 100,
		TTL:     time.Minute,
	})
	if err != nil {
		panic(err)
	}

	c.Set("greeting", "hello")

	if v, ok := c.Get("greeting"); ok {
		fmt.Println(v)
	}
	// Output:
	// hello
}

func ExampleCache_GetOrSet() {
	c, _ := cache.New[string, int](cache.Config{MaxSize: 10})

	expensive := func(ctx context.Context) (int, error) {
		fmt.Println("computing")
		return 42, nil
	}

	v1, _ := c.GetOrSet(context.Background(), "answer", expensive)
	v2, _ := c.GetOrSet(context.Background(), "answer", expensive)
	fmt.Println(v1, v2)
	// Output:
	// computing
	// 42 42
}

func ExampleMiddleware() {
	store, _ := cache.New[string, []byte](cache.Config{MaxSize: 100})
	mw := cache.NewMiddleware(store, nil, cache.DefaultPolicy())

	invoker := func(ctx context.Context, tool string, input any) ([]byte, error) {
		fmt.Println("invoking", tool)
		return []byte("png-bytes"), nil
	}

	input := map[string]any{"prompt": "a lighthouse at dusk"}
	out1, _ := mw.Execute(context.Background(), "generate_image", input, invoker)
	out2, _ := mw.Execute(context.Background(), "generate_image", input, invoker)
	fmt.Println(len(out1), len(out2))
	// Output:
	// invoking generate_image
	// 9 9
}
