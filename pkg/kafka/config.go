package kafka

// Config holds Kafka connection parameters. The engine runs next to its
// broker; authentication and transport security terminate at the mesh.
type Config struct {
	Brokers       []string
	ConsumerGroup string
}
