// Package tool provides the tool registry used by agents.
//
// Define tool arguments as a struct with tags and register a typed handler.
// The parameter schema is generated from the struct:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" desc:"City name" required:"true"`
//	    Unit     string `json:"unit" desc:"Temperature unit" enum:"celsius,fahrenheit"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("get_weather", "Get current weather",
//	        func(ctx context.Context, args WeatherArgs) (string, error) {
//	            return fmt.Sprintf(`{"temp": 22, "location": %q}`, args.Location), nil
//	        }),
//	)
//
// # Supported Struct Tags
//
//	json:"name"      - Property name
//	desc:"text"      - Description for the model
//	required:"true"  - Mark field as required
//	enum:"a,b,c"     - Allowed values (comma-separated)
package tool
