/*
Package assetsync keeps a local cache of asset bundles in sync with a remote content package.

Bundles are zip containers of assets. A package ships a read-only base copy of its bundles with the
installation; newer versions are downloaded from a remote store (a directory, an HTTP server,
a GCS or S3 bucket) into a writable overlay directory.

At runtime, a session resolves every bundle to its newest local copy, loads bundles along with their
dependencies, and shares them across concurrent asset loads with reference counting.

The CLI in cmd/assetsync drives sessions from the command line.
*/
package assetsync
