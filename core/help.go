package core

const helpText = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

SET <key> <value>
  Store a value for the given key.
  Overwrites the value if the key already exists.
  Response: ok

GET <key>
  Retrieve the value associated with the key.
  Response: value | nil

DELETE <key>
  Delete the key and its value.
  Response: ok

EXISTS <key>
  Check if a key exists.
  Response: true | false

COUNT
  Return the number of live keys.
  Response: integer

LIST
  List all live keys in order.
  Response: list of keys | nil

SCAN [<from> [<to>]]
  List key/value pairs with from <= key < to, in increasing order.
  A missing bound is unbounded.

RSCAN [<from> [<to>]]
  Same as SCAN, in decreasing order.

PREFIX <prefix>
  List key/value pairs whose key starts with prefix.

MERGE
  Compact the log down to one record per live key.
  Blocks every other command while it runs.
  Response: ok

SIZE
  Return the log size in bytes.
  Response: integer

HELP
  Show this help message.

EXIT (cli only)
  Close the client connection.
`
