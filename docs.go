/*

Package sender provides a sink that sends metrics records to a Graphite endpoint using the
plaintext protocol over a persistent TCP connection.

Each metric of a record becomes one line:

	<prefix>.<context>.<contextName>.<tag=value>...<metric> <value> <seconds>

The connection is opened on the first call to PutMetrics and re-opened on the call after
a failure. Failures are logged and never returned to the caller.

Example

The following would send two metrics to a carbon listener on port 2003:

	sink, err := sender.NewSink(sender.Config{Host: "graphite", Port: 2003})

	record := sender.NewRecord("jvm")
	record.SetTime(time.Now())
	record.AddTag(sender.ContextTag, "all")
	record.AddTag(sender.HostnameTag, "host1")
	record.AddMetric("heapUsed", 1024)
	record.AddMetric("gcTime", 2.5)
	sink.PutMetrics(context.Background(), *record)

*/
package sender
