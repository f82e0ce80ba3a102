// Package datatrue provides a small Go client for the DataTrue management and CI APIs.
// It covers what is needed to start test and suite runs and to follow their progress.
//
// The package provides functionality to:
//   - Look up tests and suites
//   - List the tests of a suite
//   - Trigger test and suite runs
//   - Fetch the status of a triggered job
//
// Example usage:
//
//	client, err := datatrue.NewClient(datatrue.Options{
//	    UserToken:    os.Getenv("DATATRUE_USER_TOKEN"),
//	    AccountToken: os.Getenv("DATATRUE_ACCOUNT_TOKEN"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	jobID, err := client.Run(ctx, datatrue.ResourceSuite, 42, datatrue.RunOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	status, err := client.JobStatus(ctx, jobID)
package datatrue
