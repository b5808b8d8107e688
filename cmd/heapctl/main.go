// Command heapctl exercises the heapkit allocator: a scripted demonstration,
// a concurrent stress run and a dump of the block list.
package main

func main() {
	execute()
}
