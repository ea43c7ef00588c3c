package probe

//go:generate clang -O2 -g -Wall -target bpf -D__TARGET_ARCH_x86 -I/usr/include/x86_64-linux-gnu -c bpf/calltop.bpf.c -o bpf/calltop.bpf.o
